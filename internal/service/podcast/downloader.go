package podcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/oshokin/podcast-grabber/internal/apperror"
	"github.com/oshokin/podcast-grabber/internal/constants"
	"github.com/oshokin/podcast-grabber/internal/logger"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

// downloadRun holds the read-only state shared by every task of one run.
type downloadRun struct {
	// feed is the parsed feed.
	feed *Feed
	// cover is the podcast artwork to embed, nil when unavailable.
	cover *CoverImage
}

// trackingReader remembers the error of the underlying reader,
// so a failed copy can be blamed on the network or on the disk.
type trackingReader struct {
	r   io.Reader
	err error
}

func (tr *trackingReader) Read(p []byte) (int, error) {
	n, err := tr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		tr.err = err
	}

	return n, err
}

// downloadEpisode downloads one episode and writes its sidecar and tags.
// It never returns nil and never aborts the run.
func (s *ServiceImpl) downloadEpisode(ctx context.Context, run *downloadRun, task *DownloadTask) *DownloadOutcome {
	var (
		episode = task.Episode
		outcome = &DownloadOutcome{Task: task}
	)

	logger.Infof(ctx, "Downloading episode (%d / %d): %s", task.Index, task.Total, episode.DisplayTitle())

	if s.cfg.DryRun {
		logger.Infof(ctx, "[DRY-RUN] Would download %s to %s", episode.EnclosureURL, task.DestinationPath)

		if task.MetadataPath != "" {
			logger.Infof(ctx, "[DRY-RUN] Would write metadata to %s", task.MetadataPath)
		}

		outcome.Success = true
		outcome.BytesWritten = episode.EnclosureLength

		return outcome
	}

	if exists, _ := utils.IsFileExist(task.DestinationPath); exists {
		logger.Debugf(ctx, "Replacing existing file: %s", task.DestinationPath)
	}

	phase, err := s.fetchToFile(ctx, run, task, outcome)
	if err != nil {
		outcome.Err = err
		outcome.FailedPhase = phase

		if !errors.Is(err, context.Canceled) {
			logger.Errorf(ctx, "Failed to download episode %q (%s): %v", episode.DisplayTitle(), phase, err)
		}

		return outcome
	}

	outcome.Success = true

	if task.MetadataPath != "" {
		err = s.metadataWriter.Write(task.MetadataPath, run.feed, episode)
		if err != nil {
			outcome.MetadataErr = apperror.IO("write metadata", err)
			logger.Warnf(ctx, "Failed to write metadata for %q: %v", episode.DisplayTitle(), err)
		} else {
			outcome.MetadataWritten = true
		}
	}

	//nolint:gosec // BytesWritten is never negative.
	logger.Infof(ctx, "Saved %s (%s)", task.DestinationPath, humanize.Bytes(uint64(outcome.BytesWritten)))

	return outcome
}

// fetchToFile streams the enclosure into a temporary file next to the destination,
// tags it, and renames it into place. It returns the failed phase along with the error.
func (s *ServiceImpl) fetchToFile(
	ctx context.Context,
	run *downloadRun,
	task *DownloadTask,
	outcome *DownloadOutcome,
) (DownloadPhase, error) {
	destinationPath := task.DestinationPath

	err := os.MkdirAll(filepath.Dir(destinationPath), constants.DefaultFolderPermissions)
	if err != nil {
		return PhaseWriting, apperror.IO("create directory", err)
	}

	fetchResult, err := s.client.FetchEnclosure(ctx, task.Episode.EnclosureURL)
	if err != nil {
		return PhaseFetching, err
	}

	defer fetchResult.Body.Close() //nolint:errcheck // Error on close is not critical here.

	partPath := destinationPath + "." + uuid.NewString() + constants.ExtensionPart

	//nolint:gosec // The path is built from a sanitized name inside the output directory.
	f, err := os.OpenFile(partPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, constants.DefaultFilePermissions)
	if err != nil {
		return PhaseWriting, apperror.IO("create file", err)
	}

	isDownloadComplete := false

	defer func() {
		if !isDownloadComplete {
			if removeErr := os.Remove(partPath); removeErr != nil && !os.IsNotExist(removeErr) {
				logger.Warnf(ctx, "Failed to remove partial file %s: %v", partPath, removeErr)
			}
		}
	}()

	var writer io.Writer = f

	if s.showProgress {
		bar := progressbar.DefaultBytes(fetchResult.TotalBytes, "Downloading")
		writer = io.MultiWriter(f, bar)
	}

	body := &trackingReader{r: fetchResult.Body}

	bytesWritten, err := io.Copy(writer, body)
	closeErr := f.Close()

	switch {
	case err != nil && body.err != nil:
		return PhaseFetching, apperror.Network("read enclosure", err)
	case err != nil:
		return PhaseWriting, apperror.IO("write file", err)
	case closeErr != nil:
		return PhaseWriting, apperror.IO("close file", closeErr)
	case fetchResult.TotalBytes > 0 && bytesWritten != fetchResult.TotalBytes:
		return PhaseFetching, apperror.Network("read enclosure",
			fmt.Errorf("%w: got %d of %d bytes", ErrIncompleteDownload, bytesWritten, fetchResult.TotalBytes))
	}

	outcome.BytesWritten = bytesWritten

	if s.cfg.WriteTags {
		s.writeEpisodeTags(ctx, run, task, partPath, outcome)
	}

	err = os.Rename(partPath, destinationPath)
	if err != nil {
		return PhaseWriting, apperror.IO("rename file", err)
	}

	isDownloadComplete = true

	return "", nil
}

// writeEpisodeTags tags the downloaded file. Failures are reported on the outcome only.
func (s *ServiceImpl) writeEpisodeTags(
	ctx context.Context,
	run *downloadRun,
	task *DownloadTask,
	path string,
	outcome *DownloadOutcome,
) {
	extension := filepath.Ext(task.DestinationPath)
	if !IsTaggable(extension) {
		logger.Debugf(ctx, "Skipping tags for %s: unsupported format", task.DestinationPath)

		return
	}

	err := s.tagProcessor.WriteTags(ctx, &WriteTagsRequest{
		FilePath:  path,
		Extension: extension,
		Tags:      episodeTags(run.feed, task.Episode),
		Cover:     run.cover,
	})
	if err != nil {
		outcome.TagsErr = apperror.IO("write tags", err)
		logger.Warnf(ctx, "Failed to write tags for %q: %v", task.Episode.DisplayTitle(), err)

		return
	}

	outcome.TagsWritten = true
}

// episodeTags returns the tag values of an episode.
func episodeTags(feed *Feed, episode *Episode) map[string]string {
	tags := map[string]string{
		tagKeyTitle:       episode.DisplayTitle(),
		tagKeyArtist:      episode.Author,
		tagKeyTrackNumber: episode.EpisodeNumber,
		tagKeyComment:     episode.Description,
		tagKeyGenre:       podcastGenre,
	}

	if feed != nil {
		tags[tagKeyAlbum] = feed.Title

		if tags[tagKeyArtist] == "" {
			tags[tagKeyArtist] = feed.Author
		}
	}

	if episode.PublishedAt != nil {
		tags[tagKeyDate] = episode.PublishedAt.Format("2006-01-02")
		tags[tagKeyYear] = strconv.Itoa(episode.PublishedAt.Year())
	}

	return tags
}
