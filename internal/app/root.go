package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/podcast-grabber/internal/client/feed"
	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/logger"
	"github.com/oshokin/podcast-grabber/internal/service/podcast"
)

// ErrUnexpectedPanic is returned when a panic escapes the download session.
var ErrUnexpectedPanic = errors.New("unexpected panic")

// ExecuteRootCommand is the entry point for the application.
// It builds the feed client and the podcast service, downloads the selected episodes
// and prints the summary. The returned error is fatal: an unreachable or unparseable feed,
// an unusable output directory, or an interrupted run.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config) (err error) {
	feedClient := feed.NewClient(feed.NewHTTPClient(cfg))
	templateManager := podcast.NewTemplateManager(ctx, cfg)

	s := podcast.NewService(
		cfg,
		feedClient,
		podcast.NewFeedParser(),
		podcast.NewFilenameResolver(templateManager, int(cfg.MaxFilenameLength)),
		podcast.NewMetadataWriter(cfg.ParsedMetadataFormat),
		podcast.NewTagProcessor(),
	)

	// The summary is printed even when a panic escapes the download session.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)

			err = fmt.Errorf("%w: %v", ErrUnexpectedPanic, r)
		} else if err != nil {
			return
		}

		s.PrintDownloadSummary(ctx)

		if err == nil {
			err = ctx.Err()
		}
	}()

	return s.DownloadFeed(ctx, cfg.FeedURL)
}
