package podcast

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/oshokin/id3v2/v2"

	"github.com/oshokin/podcast-grabber/internal/constants"
	"github.com/oshokin/podcast-grabber/internal/logger"
)

// Tag keys filled in by the service before calling the TagProcessor.
const (
	tagKeyTitle       = "title"
	tagKeyAlbum       = "album"
	tagKeyArtist      = "artist"
	tagKeyDate        = "date"
	tagKeyYear        = "year"
	tagKeyTrackNumber = "trackNumber"
	tagKeyComment     = "comment"
	tagKeyGenre       = "genre"

	// podcastGenre is written as the genre of every episode.
	podcastGenre = "Podcast"
)

// TagProcessor writes audio tags into downloaded episodes.
type TagProcessor interface {
	// WriteTags updates the tags of the file in place.
	WriteTags(ctx context.Context, req *WriteTagsRequest) error
}

// WriteTagsRequest contains parameters for writing tags to an audio file.
type WriteTagsRequest struct {
	// FilePath is the file to update. It may be a temporary file.
	FilePath string
	// Extension is the final media extension, which selects the tag format.
	Extension string
	// Tags contains the values to write, keyed by the tagKey constants.
	Tags map[string]string
	// Cover is the artwork to embed when the file has none. Nil skips it.
	Cover *CoverImage
}

// CoverImage is podcast artwork held in memory.
type CoverImage struct {
	// Data contains the raw image bytes.
	Data []byte
	// MIMEType specifies the image format (e.g., "image/jpeg").
	MIMEType string
}

// TagProcessorImpl writes ID3v2 tags to MP3 files and Vorbis comments to FLAC files.
type TagProcessorImpl struct{}

// extractFLACCommentResult contains the result of extracting FLAC comment metadata.
type extractFLACCommentResult struct {
	// Comment is the FLAC Vorbis comment metadata block.
	Comment *flacvorbis.MetaDataBlockVorbisComment
	// Index is the index of the comment block in the FLAC file metadata (-1 if not found).
	Index int
}

var (
	// ErrEmptyFilePath indicates that the audio file path is empty.
	ErrEmptyFilePath = errors.New("file path cannot be empty")
	// ErrUnsupportedTagFormat indicates that the file format has no tag writer.
	ErrUnsupportedTagFormat = errors.New("unsupported tag format")
)

// NewTagProcessor creates a new TagProcessor instance.
func NewTagProcessor() TagProcessor {
	return new(TagProcessorImpl)
}

// IsTaggable reports whether files with the extension can be tagged.
func IsTaggable(extension string) bool {
	switch strings.ToLower(extension) {
	case constants.ExtensionMP3, constants.ExtensionFLAC:
		return true
	default:
		return false
	}
}

// WriteTags updates the tags of the file in place.
func (tp *TagProcessorImpl) WriteTags(ctx context.Context, req *WriteTagsRequest) error {
	if req.FilePath == "" {
		return ErrEmptyFilePath
	}

	switch strings.ToLower(req.Extension) {
	case constants.ExtensionFLAC:
		return tp.writeFLACTags(ctx, req)
	case constants.ExtensionMP3:
		return tp.writeMP3Tags(req)
	default:
		return ErrUnsupportedTagFormat
	}
}

func (tp *TagProcessorImpl) writeFLACTags(ctx context.Context, req *WriteTagsRequest) error {
	f, err := flac.ParseFile(filepath.Clean(req.FilePath))
	if err != nil {
		return err
	}

	commentResult := tp.extractFLACComment(f)

	tag := commentResult.Comment
	if tag == nil {
		tag = flacvorbis.New()
	}

	err = tp.addFLACTags(tag, req.Tags)
	if err != nil {
		return err
	}

	tagMeta := tag.Marshal()
	if commentResult.Index >= 0 {
		f.Meta[commentResult.Index] = &tagMeta
	} else {
		f.Meta = append(f.Meta, &tagMeta)
	}

	tp.embedFLACCover(ctx, f, req.Cover)

	return f.Save(req.FilePath)
}

func (tp *TagProcessorImpl) extractFLACComment(f *flac.File) *extractFLACCommentResult {
	for idx, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}

		comment, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err == nil {
			return &extractFLACCommentResult{
				Comment: comment,
				Index:   idx,
			}
		}
	}

	return &extractFLACCommentResult{
		Comment: nil,
		Index:   -1,
	}
}

func (tp *TagProcessorImpl) addFLACTags(tag *flacvorbis.MetaDataBlockVorbisComment, tags map[string]string) error {
	flacTags := map[string]string{
		"TITLE":       tags[tagKeyTitle],
		"ALBUM":       tags[tagKeyAlbum],
		"ARTIST":      tags[tagKeyArtist],
		"DATE":        tags[tagKeyDate],
		"GENRE":       tags[tagKeyGenre],
		"TRACKNUMBER": tags[tagKeyTrackNumber],
		"DESCRIPTION": tags[tagKeyComment],
	}

	for k, v := range flacTags {
		if v == "" {
			continue
		}

		// Publisher-supplied values for the same field are replaced, not duplicated.
		removeVorbisField(tag, k)

		err := tag.Add(k, v)
		if err != nil {
			return err
		}
	}

	return nil
}

// removeVorbisField drops every comment of the field, compared case-insensitively.
func removeVorbisField(tag *flacvorbis.MetaDataBlockVorbisComment, field string) {
	prefix := strings.ToUpper(field) + "="

	kept := tag.Comments[:0]
	for _, comment := range tag.Comments {
		if !strings.HasPrefix(strings.ToUpper(comment), prefix) {
			kept = append(kept, comment)
		}
	}

	tag.Comments = kept
}

func (tp *TagProcessorImpl) embedFLACCover(ctx context.Context, f *flac.File, image *CoverImage) {
	if image == nil {
		return
	}

	for _, meta := range f.Meta {
		if meta.Type == flac.Picture {
			return
		}
	}

	picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", image.Data, image.MIMEType)
	if err != nil {
		logger.Warnf(ctx, "Failed to embed cover to FLAC: %v", err)

		return
	}

	pictureMeta := picture.Marshal()
	f.Meta = append(f.Meta, &pictureMeta)
}

func (tp *TagProcessorImpl) writeMP3Tags(req *WriteTagsRequest) error {
	// Existing frames are parsed so publisher chapters and artwork survive.
	//nolint:exhaustruct // ParseFrames omitted to keep every frame.
	tag, err := id3v2.Open(req.FilePath, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}

	defer tag.Close()

	tp.addMP3Tags(tag, req.Tags)

	if req.Cover != nil && len(tag.GetFrames(tag.CommonID("Attached picture"))) == 0 {
		//nolint:exhaustruct // Description field intentionally empty for cover images.
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    req.Cover.MIMEType,
			PictureType: id3v2.PTFrontCover,
			Picture:     req.Cover.Data,
		})
	}

	return tag.Save()
}

func (tp *TagProcessorImpl) addMP3Tags(tag *id3v2.Tag, tags map[string]string) {
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	setIfPresent := func(value string, set func(string)) {
		if value != "" {
			set(value)
		}
	}

	setIfPresent(tags[tagKeyTitle], tag.SetTitle)
	setIfPresent(tags[tagKeyAlbum], tag.SetAlbum)
	setIfPresent(tags[tagKeyArtist], tag.SetArtist)
	setIfPresent(tags[tagKeyYear], tag.SetYear)
	setIfPresent(tags[tagKeyGenre], tag.SetGenre)

	if trackNumber := tags[tagKeyTrackNumber]; trackNumber != "" {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), trackNumber)
	}

	if comment := tags[tagKeyComment]; comment != "" {
		tag.DeleteFrames(tag.CommonID("Comments"))
		//nolint:exhaustruct // Description is left empty for the main comment.
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			// Field is required, so we just use lingua franca.
			Language: id3v2.EnglishISO6392Code,
			Text:     comment,
		})
	}
}
