package podcast

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oshokin/podcast-grabber/internal/constants"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

// FilenameResolver assigns a file name to every selected episode.
type FilenameResolver interface {
	// Resolve returns one file name per episode, extension included, in the same order.
	// Names are unique within the result when compared case-insensitively by base name,
	// and the same input always yields the same names.
	Resolve(ctx context.Context, feed *Feed, episodes []*Episode) []string

	// ResolvePodcastFolder returns the sanitized name of the podcast sub-folder.
	ResolvePodcastFolder(ctx context.Context, feed *Feed) string
}

// maxNameBytes bounds a resolved name, extension included, in UTF-8 bytes.
// File systems cap a name at 255 bytes and downloads first land in
// "<name>.<uuid>.part", which adds 42 bytes.
const maxNameBytes = 200

// FilenameResolverImpl implements FilenameResolver with a TemplateManager.
type FilenameResolverImpl struct {
	// templateManager renders the raw names.
	templateManager TemplateManager
	// maxLength bounds the base name in runes; maxNameBytes applies on top of it.
	maxLength int
}

// NewFilenameResolver creates a new FilenameResolver instance.
// A non-positive maxLength leaves the rune count unbounded; the byte budget always applies.
func NewFilenameResolver(templateManager TemplateManager, maxLength int) FilenameResolver {
	return &FilenameResolverImpl{
		templateManager: templateManager,
		maxLength:       maxLength,
	}
}

// Resolve returns one file name per episode, extension included, in the same order.
func (r *FilenameResolverImpl) Resolve(ctx context.Context, feed *Feed, episodes []*Episode) []string {
	var (
		result = make([]string, 0, len(episodes))
		used   = make(map[string]struct{}, len(episodes))
	)

	for _, episode := range episodes {
		extension := episodeExtension(episode)
		budget := maxNameBytes - len(extension)

		baseName := r.baseName(ctx, feed, episode, budget)
		baseName = r.disambiguate(baseName, used, budget)
		used[strings.ToLower(baseName)] = struct{}{}

		result = append(result, baseName+extension)
	}

	return result
}

// ResolvePodcastFolder returns the sanitized name of the podcast sub-folder.
func (r *FilenameResolverImpl) ResolvePodcastFolder(ctx context.Context, feed *Feed) string {
	tags := map[string]string{
		tagPodcastTitle:  feed.Title,
		tagPodcastAuthor: feed.Author,
	}

	if strings.TrimSpace(tags[tagPodcastTitle]) == "" {
		tags[tagPodcastTitle] = "Podcast"
	}

	name := utils.SanitizeFilename(r.templateManager.GetPodcastFolderName(ctx, tags))

	return r.bound(name, maxNameBytes)
}

func (r *FilenameResolverImpl) baseName(ctx context.Context, feed *Feed, episode *Episode, budget int) string {
	name := utils.SanitizeFilename(r.templateManager.GetEpisodeFilename(ctx, episodeTemplateTags(feed, episode)))
	if name == "" {
		name = utils.SanitizeFilename(episode.DisplayTitle())
	}

	return r.bound(name, budget)
}

// bound truncates a sanitized name to the rune limit and the byte budget, never leaving it empty.
func (r *FilenameResolverImpl) bound(name string, budget int) string {
	name = utils.TruncateBytes(utils.TruncateRunes(name, r.maxLength), budget)
	name = strings.TrimRight(name, ". ")
	if name == "" {
		return "_"
	}

	return name
}

// disambiguate appends " (2)", " (3)", and so on until the name is unused.
// The stem is shortened so the suffixed name still fits the length limit and the byte budget.
func (r *FilenameResolverImpl) disambiguate(name string, used map[string]struct{}, budget int) string {
	if _, ok := used[strings.ToLower(name)]; !ok {
		return name
	}

	for n := 2; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)

		stem := name
		if r.maxLength > 0 {
			stem = utils.TruncateRunes(name, r.maxLength-utf8.RuneCountInString(suffix))
		}

		stem = utils.TruncateBytes(stem, budget-len(suffix))

		candidate := stem + suffix
		if _, ok := used[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}

// episodeExtension picks the media extension from the enclosure URL, then its MIME type.
// URL extensions that are not media containers (".php", ".json") are ignored.
func episodeExtension(episode *Episode) string {
	if extension := utils.ExtensionFromURL(episode.EnclosureURL); utils.IsMediaExtension(extension) {
		return extension
	}

	if extension := utils.ExtensionFromContentType(episode.EnclosureType); extension != "" {
		return extension
	}

	return constants.DefaultMediaExtension
}

// episodeTemplateTags returns the values available to the episode filename template.
func episodeTemplateTags(feed *Feed, episode *Episode) map[string]string {
	tags := map[string]string{
		tagEpisodeTitle:  episode.DisplayTitle(),
		tagEpisodeNumber: episode.EpisodeNumber,
		tagPublishDate:   "",
		tagPublishYear:   "",
		tagPodcastTitle:  "",
		tagPodcastAuthor: "",
		tagGUID:          episode.GUID,
	}

	if tags[tagEpisodeNumber] == "" {
		tags[tagEpisodeNumber] = strconv.Itoa(episode.Position)
	}

	if episode.PublishedAt != nil {
		tags[tagPublishDate] = episode.PublishedAt.Format(time.DateOnly)
		tags[tagPublishYear] = strconv.Itoa(episode.PublishedAt.Year())
	}

	if feed != nil {
		tags[tagPodcastTitle] = feed.Title
		tags[tagPodcastAuthor] = feed.Author
	}

	return tags
}
