package podcast

import (
	"strconv"
	"time"

	"github.com/oshokin/podcast-grabber/internal/apperror"
)

// Episode is one feed item. It is immutable after parsing.
type Episode struct {
	// Position is the 1-based index of the item in document order.
	Position int
	// Title is the trimmed item title. Empty means the feed omitted it.
	Title string
	// PublishedAt is the publish date, nil when missing or unparseable.
	PublishedAt *time.Time
	// PublishedRaw is the date text as it appeared in the feed.
	PublishedRaw string
	// EnclosureURL is the media URL. Empty means the item cannot be downloaded.
	EnclosureURL string
	// EnclosureType is the declared MIME type of the media.
	EnclosureType string
	// EnclosureLength is the declared media size in bytes, 0 when unknown.
	EnclosureLength int64
	// Description is the item summary, possibly HTML.
	Description string
	// Duration is the iTunes duration text, such as "01:02:03".
	Duration string
	// Author is the item author.
	Author string
	// GUID is the item identifier.
	GUID string
	// Link is the item web page.
	Link string
	// EpisodeNumber is the iTunes episode number.
	EpisodeNumber string
	// ImageURL is the item artwork.
	ImageURL string
	// Categories are the item categories.
	Categories []string
}

// DisplayTitle returns the title, or a positional placeholder when the feed omitted it.
func (e *Episode) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}

	return "Episode " + strconv.Itoa(e.Position)
}

// HasEnclosure reports whether the episode can be downloaded.
func (e *Episode) HasEnclosure() bool {
	return e.EnclosureURL != ""
}

// Feed is a parsed podcast feed with episodes in document order.
type Feed struct {
	// Title is the podcast title.
	Title string
	// Author is the podcast author.
	Author string
	// Description is the podcast description.
	Description string
	// Link is the podcast web page.
	Link string
	// ImageURL is the podcast artwork.
	ImageURL string
	// Episodes are the feed items in document order.
	Episodes []*Episode
}

// SelectionResult is the ordered set of episodes to download.
type SelectionResult struct {
	// Episodes are ordered newest first, undated episodes last in document order.
	Episodes []*Episode
	// Dropped are the episodes excluded for lacking an enclosure, in document order.
	Dropped []*Episode
}

// DownloadTask is one unit of work for the dispatcher.
type DownloadTask struct {
	// Index is the 1-based position in the selection.
	Index int
	// Total is the number of selected episodes.
	Total int
	// Episode is the episode to download. Its enclosure URL is never empty.
	Episode *Episode
	// DestinationPath is the final media file path.
	DestinationPath string
	// MetadataPath is the sidecar path, empty when sidecars are disabled.
	MetadataPath string
}

// DownloadOutcome is the result of one task.
type DownloadOutcome struct {
	// Task is the task this outcome belongs to.
	Task *DownloadTask
	// Success is true when the media file is in place.
	Success bool
	// Err is the failure cause when Success is false.
	Err error
	// FailedPhase is the step that failed when Success is false.
	FailedPhase DownloadPhase
	// BytesWritten is the size of the media file.
	BytesWritten int64
	// MetadataWritten is true when the sidecar file was written.
	MetadataWritten bool
	// MetadataErr is set when the sidecar could not be written.
	MetadataErr error
	// TagsWritten is true when audio tags were written.
	TagsWritten bool
	// TagsErr is set when audio tags could not be written.
	TagsErr error
}

// DownloadPhase names the step of an episode download.
type DownloadPhase string

const (
	// PhaseFetching covers the HTTP request and the body transfer.
	PhaseFetching DownloadPhase = "fetching enclosure"
	// PhaseWriting covers creating, writing, and renaming the local file.
	PhaseWriting DownloadPhase = "writing file"
	// PhaseTagging covers writing audio tags.
	PhaseTagging DownloadPhase = "writing tags"
	// PhaseMetadata covers writing the sidecar file.
	PhaseMetadata DownloadPhase = "writing metadata"
)

// DownloadStatistics tracks counters for the current run.
type DownloadStatistics struct {
	// StartTime is when the run began.
	StartTime time.Time
	// EndTime is when the run completed.
	EndTime time.Time
	// IsDryRun indicates if this was a dry-run preview.
	IsDryRun bool
	// FeedTitle is the podcast title.
	FeedTitle string
	// EpisodesInFeed is the number of items in the feed.
	EpisodesInFeed int64
	// EpisodesWithoutEnclosure is the number of items dropped for lacking an enclosure.
	EpisodesWithoutEnclosure int64
	// EpisodesSelected is the number of episodes chosen for download.
	EpisodesSelected int64
	// EpisodesAttempted is the number of download attempts.
	EpisodesAttempted int64
	// EpisodesSucceeded is the number of episodes written to disk.
	EpisodesSucceeded int64
	// EpisodesFailed is the number of failed attempts.
	EpisodesFailed int64
	// TotalBytesDownloaded is the total size of downloaded media in bytes.
	TotalBytesDownloaded int64
	// MetadataWritten is the number of sidecar files written.
	MetadataWritten int64
	// MetadataFailed is the number of sidecar files that could not be written.
	MetadataFailed int64
	// TagsWritten is the number of files tagged.
	TagsWritten int64
	// TagsFailed is the number of files that could not be tagged.
	TagsFailed int64
	// Errors is a list of all errors encountered during the run.
	Errors []DownloadError
}

// DownloadError represents a single error that occurred during download.
type DownloadError struct {
	// EpisodeIndex is the 1-based position of the episode in the selection.
	EpisodeIndex int
	// EpisodeTitle is the human-readable title of the episode.
	EpisodeTitle string
	// EnclosureURL is the media URL of the episode.
	EnclosureURL string
	// Kind classifies the failure.
	Kind apperror.Kind
	// Phase indicates when the error occurred.
	Phase DownloadPhase
	// ErrorMessage is the error message.
	ErrorMessage string
}
