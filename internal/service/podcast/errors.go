package podcast

import (
	"context"
	"errors"

	"github.com/oshokin/podcast-grabber/internal/apperror"
)

// Common errors for the service layer.
var (
	// ErrIncompleteDownload indicates that the downloaded size doesn't match the announced size.
	ErrIncompleteDownload = errors.New("incomplete download")
	// ErrCoverTooLarge indicates that the podcast artwork exceeds the embedding limit.
	ErrCoverTooLarge = errors.New("cover image too large")
	// ErrNotAnImage indicates that the podcast artwork URL did not return an image.
	ErrNotAnImage = errors.New("cover is not an image")
)

// ErrorContext provides context information for download errors.
type ErrorContext struct {
	// EpisodeIndex is the 1-based position of the episode in the selection.
	EpisodeIndex int
	// EpisodeTitle is the human-readable title of the episode.
	EpisodeTitle string
	// EnclosureURL is the media URL of the episode.
	EnclosureURL string
	// Phase indicates when the error occurred.
	Phase DownloadPhase
}

// newErrorContext describes a task for error reporting.
func newErrorContext(task *DownloadTask, phase DownloadPhase) *ErrorContext {
	return &ErrorContext{
		EpisodeIndex: task.Index,
		EpisodeTitle: task.Episode.DisplayTitle(),
		EnclosureURL: task.Episode.EnclosureURL,
		Phase:        phase,
	}
}

// recordError records an error in the statistics with proper context.
// Context cancellation errors are ignored as they are expected during graceful shutdown.
func (s *ServiceImpl) recordError(errCtx *ErrorContext, err error) {
	if errCtx == nil || err == nil {
		return
	}

	if errors.Is(err, context.Canceled) {
		return
	}

	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.Errors = append(s.stats.Errors, DownloadError{
		EpisodeIndex: errCtx.EpisodeIndex,
		EpisodeTitle: errCtx.EpisodeTitle,
		EnclosureURL: errCtx.EnclosureURL,
		Kind:         apperror.KindOf(err),
		Phase:        errCtx.Phase,
		ErrorMessage: err.Error(),
	})
}
