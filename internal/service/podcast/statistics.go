package podcast

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/oshokin/podcast-grabber/internal/logger"
)

const summarySeparator = "═══════════════════════════════════════════════════════════════"

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// resetStatistics starts a new run.
func (s *ServiceImpl) resetStatistics() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats = &DownloadStatistics{
		StartTime: time.Now(),
		IsDryRun:  s.cfg.DryRun,
	}
}

// finishStatistics stamps the end of the run.
func (s *ServiceImpl) finishStatistics() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.EndTime = time.Now()
}

// setFeedStatistics records the feed-level counters.
func (s *ServiceImpl) setFeedStatistics(feed *Feed, selection *SelectionResult) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.FeedTitle = feed.Title
	s.stats.EpisodesInFeed = int64(len(feed.Episodes))
	s.stats.EpisodesWithoutEnclosure = int64(len(selection.Dropped))
	s.stats.EpisodesSelected = int64(len(selection.Episodes))
}

// recordOutcome adds a finished task to the counters and the error list.
func (s *ServiceImpl) recordOutcome(outcome *DownloadOutcome) {
	s.statsMutex.Lock()

	s.stats.EpisodesAttempted++

	if outcome.Success {
		s.stats.EpisodesSucceeded++
		s.stats.TotalBytesDownloaded += outcome.BytesWritten
	} else {
		s.stats.EpisodesFailed++
	}

	switch {
	case outcome.MetadataWritten:
		s.stats.MetadataWritten++
	case outcome.MetadataErr != nil:
		s.stats.MetadataFailed++
	}

	switch {
	case outcome.TagsWritten:
		s.stats.TagsWritten++
	case outcome.TagsErr != nil:
		s.stats.TagsFailed++
	}

	s.statsMutex.Unlock()

	if !outcome.Success {
		s.recordError(newErrorContext(outcome.Task, outcome.FailedPhase), outcome.Err)
	}

	if outcome.MetadataErr != nil {
		s.recordError(newErrorContext(outcome.Task, PhaseMetadata), outcome.MetadataErr)
	}

	if outcome.TagsErr != nil {
		s.recordError(newErrorContext(outcome.Task, PhaseTagging), outcome.TagsErr)
	}
}

// Statistics returns a snapshot of the current run.
func (s *ServiceImpl) Statistics() DownloadStatistics {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	snapshot := *s.stats
	snapshot.Errors = append([]DownloadError(nil), s.stats.Errors...)

	return snapshot
}

// PrintDownloadSummary prints a formatted summary of download statistics.
// Attempted, succeeded, and failed counts are always printed.
func (s *ServiceImpl) PrintDownloadSummary(ctx context.Context) {
	stats := s.Statistics()

	wasInterrupted := ctx.Err() != nil

	s.printSummaryHeader(ctx, wasInterrupted, stats.IsDryRun)
	s.printFeedStatistics(ctx, &stats)
	s.printEpisodeStatistics(ctx, &stats)
	s.printDataTransferStatistics(ctx, &stats)
	s.printSidecarStatistics(ctx, &stats)
	logger.Info(ctx, summarySeparator)
	s.printErrorDetails(ctx, &stats)
	s.printFinalMessage(ctx, wasInterrupted, &stats)
}

func (s *ServiceImpl) printSummaryHeader(ctx context.Context, wasInterrupted, isDryRun bool) {
	title := "                     DOWNLOAD SUMMARY"

	switch {
	case isDryRun:
		title = "                  DRY-RUN PREVIEW"
	case wasInterrupted:
		title = "           DOWNLOAD SUMMARY (Interrupted)"
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)
	logger.Info(ctx, title)
	logger.Info(ctx, summarySeparator)
}

func (s *ServiceImpl) printFeedStatistics(ctx context.Context, stats *DownloadStatistics) {
	if stats.FeedTitle != "" {
		logger.Infof(ctx, "Podcast:          %s", stats.FeedTitle)
	}

	logger.Infof(ctx, "Feed Items:       %d", stats.EpisodesInFeed)

	if stats.EpisodesWithoutEnclosure > 0 {
		logger.Infof(ctx, "  No Enclosure:   %d", stats.EpisodesWithoutEnclosure)
	}

	logger.Infof(ctx, "  Selected:       %d", stats.EpisodesSelected)
}

func (s *ServiceImpl) printEpisodeStatistics(ctx context.Context, stats *DownloadStatistics) {
	logger.Info(ctx, "")
	logger.Infof(ctx, "Episodes:         %d attempted", stats.EpisodesAttempted)

	if stats.IsDryRun {
		logger.Infof(ctx, "  Would Download: %d", stats.EpisodesSucceeded)
	} else {
		logger.Infof(ctx, "  Succeeded:      %d", stats.EpisodesSucceeded)
	}

	logger.Infof(ctx, "  Failed:         %d", stats.EpisodesFailed)

	if stats.EpisodesAttempted > 0 {
		successRate := float64(stats.EpisodesSucceeded) / float64(stats.EpisodesAttempted) * 100
		logger.Infof(ctx, "  Success Rate:   %.1f%%", successRate)
	}
}

func (s *ServiceImpl) printDataTransferStatistics(ctx context.Context, stats *DownloadStatistics) {
	if stats.TotalBytesDownloaded > 0 {
		logger.Info(ctx, "")

		if stats.IsDryRun {
			//nolint:gosec // TotalBytesDownloaded is never negative.
			logger.Infof(ctx, "Estimated Size:   %s", humanize.Bytes(uint64(stats.TotalBytesDownloaded)))
		} else {
			//nolint:gosec // TotalBytesDownloaded is never negative.
			logger.Infof(ctx, "Data Downloaded:  %s", humanize.Bytes(uint64(stats.TotalBytesDownloaded)))
		}
	}

	if stats.IsDryRun || stats.StartTime.IsZero() || stats.EndTime.IsZero() {
		return
	}

	duration := stats.EndTime.Sub(stats.StartTime)
	if duration <= 100*time.Millisecond {
		return
	}

	logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

	if stats.TotalBytesDownloaded > 0 {
		bytesPerSecond := float64(stats.TotalBytesDownloaded) / duration.Seconds()
		logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
	}
}

func (s *ServiceImpl) printSidecarStatistics(ctx context.Context, stats *DownloadStatistics) {
	if total := stats.MetadataWritten + stats.MetadataFailed; total > 0 {
		logger.Info(ctx, "")
		logger.Infof(ctx, "Metadata Files:   %d written, %d failed", stats.MetadataWritten, stats.MetadataFailed)
	}

	if total := stats.TagsWritten + stats.TagsFailed; total > 0 {
		logger.Info(ctx, "")
		logger.Infof(ctx, "Tagged Files:     %d written, %d failed", stats.TagsWritten, stats.TagsFailed)
	}
}

func (s *ServiceImpl) printErrorDetails(ctx context.Context, stats *DownloadStatistics) {
	if len(stats.Errors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(stats.Errors))

	for i := range stats.Errors {
		downloadErr := &stats.Errors[i]

		logger.Info(ctx, "")
		logger.Errorf(ctx, "  [%d] Episode %d: %s", i+1, downloadErr.EpisodeIndex, downloadErr.EpisodeTitle)
		logger.Errorf(ctx, "      URL: %s", downloadErr.EnclosureURL)
		logger.Errorf(ctx, "      Phase: %s", downloadErr.Phase)
		logger.Errorf(ctx, "      Kind: %s", downloadErr.Kind)
		logger.Errorf(ctx, "      Error: %s", downloadErr.ErrorMessage)
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)
}

func (s *ServiceImpl) printFinalMessage(ctx context.Context, wasInterrupted bool, stats *DownloadStatistics) {
	if stats.IsDryRun {
		if stats.EpisodesSucceeded > 0 {
			logger.Info(ctx, "")
			logger.Info(ctx, "To proceed with actual download, remove the --dry-run flag.")
		}

		return
	}

	switch {
	case wasInterrupted:
		logger.Info(ctx, "")
		logger.Warn(ctx, "Download interrupted by user (CTRL+C).")

		if stats.EpisodesSucceeded > 0 {
			logger.Infof(ctx, "Successfully downloaded %d episode(s) before interruption.", stats.EpisodesSucceeded)
		}
	case stats.EpisodesFailed > 0:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "%d episode(s) failed to download. See detailed error log above.", stats.EpisodesFailed)
	case len(stats.Errors) > 0:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "%d warning(s) occurred while writing metadata or tags.", len(stats.Errors))
	case stats.EpisodesSucceeded > 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All downloads completed successfully!")
	case stats.EpisodesAttempted == 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "The feed has no downloadable episodes.")
	}
}
