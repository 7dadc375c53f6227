package podcast

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/oshokin/podcast-grabber/internal/apperror"
	"github.com/oshokin/podcast-grabber/internal/client/feed"
	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/logger"
	"github.com/oshokin/podcast-grabber/internal/utils"
)

// Service downloads the episodes of a podcast feed.
type Service interface {
	// DownloadFeed fetches the feed and downloads the selected episodes.
	// Only setup failures are returned: an unusable output directory (kind IO),
	// an unreachable feed (kind Network), or an unparseable one (kind Parse).
	// Per-episode failures are recorded in the statistics instead.
	DownloadFeed(ctx context.Context, feedURL string) error
	// PrintDownloadSummary prints a formatted summary of the last run.
	PrintDownloadSummary(ctx context.Context)
	// Statistics returns a snapshot of the last run.
	Statistics() DownloadStatistics
}

// ServiceImpl implements the Service interface.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// client fetches the feed, enclosures, and artwork.
	client feed.Client
	// parser decodes the feed document.
	parser FeedParser
	// resolver assigns file names to the selected episodes.
	resolver FilenameResolver
	// metadataWriter writes sidecar files.
	metadataWriter MetadataWriter
	// tagProcessor writes audio tags.
	tagProcessor TagProcessor
	// dispatcher runs the download tasks.
	dispatcher *Dispatcher
	// showProgress enables the progress bar for sequential downloads.
	showProgress bool
	// stats tracks counters for the current run.
	stats *DownloadStatistics
	// statsMutex protects stats.
	statsMutex sync.Mutex
}

// maxCoverSize bounds the artwork embedded into tags.
const maxCoverSize = 10 << 20

// NewService creates and returns a new instance of ServiceImpl.
func NewService(
	cfg *config.Config,
	client feed.Client,
	parser FeedParser,
	resolver FilenameResolver,
	metadataWriter MetadataWriter,
	tagProcessor TagProcessor,
) Service {
	return &ServiceImpl{
		cfg:            cfg,
		client:         client,
		parser:         parser,
		resolver:       resolver,
		metadataWriter: metadataWriter,
		tagProcessor:   tagProcessor,
		dispatcher:     NewDispatcher(int(cfg.Threads)),
		showProgress:   cfg.Threads == 1 && !cfg.DryRun && logger.Level() <= zap.InfoLevel,
		stats:          &DownloadStatistics{IsDryRun: cfg.DryRun},
	}
}

// DownloadFeed fetches the feed and downloads the selected episodes.
func (s *ServiceImpl) DownloadFeed(ctx context.Context, feedURL string) error {
	s.resetStatistics()
	defer s.finishStatistics()

	outputPath := s.cfg.OutputPath

	err := s.prepareDirectory(outputPath)
	if err != nil {
		return err
	}

	logger.Infof(ctx, "Fetching feed: %s", feedURL)

	data, err := s.client.FetchFeed(ctx, feedURL)
	if err != nil {
		return err
	}

	podcast, err := s.parser.Parse(data)
	if err != nil {
		return err
	}

	selection := SelectEpisodes(podcast, int(s.cfg.Count))
	s.setFeedStatistics(podcast, selection)

	logger.Infof(ctx, "Feed %q has %d item(s), %d selected for download",
		podcast.Title, len(podcast.Episodes), len(selection.Episodes))

	for _, episode := range selection.Dropped {
		logger.Warnf(ctx, "Skipping item %d (%s): no enclosure", episode.Position, episode.DisplayTitle())
	}

	if len(selection.Episodes) == 0 {
		logger.Info(ctx, "Nothing to download")

		return nil
	}

	if s.cfg.CreatePodcastFolder {
		outputPath = filepath.Join(outputPath, s.resolver.ResolvePodcastFolder(ctx, podcast))

		err = s.prepareDirectory(outputPath)
		if err != nil {
			return err
		}
	}

	tasks := s.buildTasks(ctx, outputPath, podcast, selection.Episodes)
	run := &downloadRun{feed: podcast}

	if s.cfg.WriteTags && !s.cfg.DryRun {
		run.cover = s.fetchCover(ctx, podcast.ImageURL)
	}

	outcomes := s.dispatcher.Run(ctx, tasks, func(ctx context.Context, task *DownloadTask) *DownloadOutcome {
		return s.downloadEpisode(ctx, run, task)
	})

	for _, outcome := range outcomes {
		s.recordOutcome(outcome)
	}

	return nil
}

// prepareDirectory makes sure files can be created in dir.
// Dry runs never touch the file system.
func (s *ServiceImpl) prepareDirectory(dir string) error {
	if s.cfg.DryRun {
		return nil
	}

	err := utils.EnsureWritableDir(dir)
	if err != nil {
		return apperror.IO("prepare output directory", err)
	}

	return nil
}

// buildTasks resolves the destination of every selected episode.
func (s *ServiceImpl) buildTasks(ctx context.Context, dir string, podcast *Feed, episodes []*Episode) []*DownloadTask {
	var (
		names = s.resolver.Resolve(ctx, podcast, episodes)
		tasks = make([]*DownloadTask, 0, len(episodes))
	)

	for i, episode := range episodes {
		task := &DownloadTask{
			Index:           i + 1,
			Total:           len(episodes),
			Episode:         episode,
			DestinationPath: filepath.Join(dir, names[i]),
		}

		if s.cfg.SaveMetadata {
			task.MetadataPath = utils.SetFileExtension(
				task.DestinationPath,
				s.cfg.ParsedMetadataFormat.Extension(),
				true,
			)
		}

		tasks = append(tasks, task)
	}

	return tasks
}

// fetchCover downloads the podcast artwork once per run.
// Any failure is logged and yields nil, so tagging goes on without a cover.
func (s *ServiceImpl) fetchCover(ctx context.Context, imageURL string) *CoverImage {
	if imageURL == "" {
		return nil
	}

	cover, err := s.downloadCover(ctx, imageURL)
	if err != nil {
		logger.Warnf(ctx, "Failed to fetch podcast cover %s: %v", imageURL, err)

		return nil
	}

	logger.Debugf(ctx, "Fetched podcast cover %s (%s, %d bytes)", imageURL, cover.MIMEType, len(cover.Data))

	return cover
}

func (s *ServiceImpl) downloadCover(ctx context.Context, imageURL string) (*CoverImage, error) {
	fetchResult, err := s.client.FetchEnclosure(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	defer fetchResult.Body.Close() //nolint:errcheck // Error on close is not critical here.

	data, err := io.ReadAll(io.LimitReader(fetchResult.Body, maxCoverSize+1))
	if err != nil {
		return nil, apperror.Network("read cover", err)
	}

	if len(data) > maxCoverSize {
		return nil, ErrCoverTooLarge
	}

	mimeType := coverMIMEType(fetchResult.ContentType, imageURL, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, mimeType)
	}

	return &CoverImage{Data: data, MIMEType: mimeType}, nil
}

// coverMIMEType trusts the response header, then the URL extension, then the content itself.
func coverMIMEType(contentType, imageURL string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}

	if extension := utils.ExtensionFromURL(imageURL); extension != "" {
		if mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(extension)); err == nil {
			return mediaType
		}
	}

	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(data))

	return mediaType
}
