package podcast

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/constants"
)

// MetadataWriter writes the sidecar file of an episode.
type MetadataWriter interface {
	// Write serializes the episode fields to path, replacing any existing file.
	Write(path string, feed *Feed, episode *Episode) error
}

// MetadataWriterImpl writes sidecars in a fixed format.
type MetadataWriterImpl struct {
	// format is the serialization format.
	format config.MetadataFormat
}

// EpisodeMetadata is the sidecar document of one episode.
type EpisodeMetadata struct {
	// Title is the episode title, or its placeholder.
	Title string `json:"title" yaml:"title"`
	// Date is the RFC 3339 publish date, the raw feed text when unparseable, or empty.
	Date string `json:"date" yaml:"date"`
	// URL is the enclosure URL.
	URL string `json:"url" yaml:"url"`
	// Description is the episode description.
	Description string `json:"description" yaml:"description"`
	// Duration is the iTunes duration text.
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
	// Author is the episode author.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`
	// GUID is the item identifier.
	GUID string `json:"guid,omitempty" yaml:"guid,omitempty"`
	// Link is the episode web page.
	Link string `json:"link,omitempty" yaml:"link,omitempty"`
	// EpisodeNumber is the iTunes episode number.
	EpisodeNumber string `json:"episode_number,omitempty" yaml:"episode_number,omitempty"`
	// Categories are the item categories.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	// Podcast is the feed title.
	Podcast string `json:"podcast,omitempty" yaml:"podcast,omitempty"`
}

// NewMetadataWriter creates a MetadataWriter for the given format.
// Unknown formats fall back to JSON.
func NewMetadataWriter(format config.MetadataFormat) MetadataWriter {
	if format != config.MetadataFormatYAML {
		format = config.MetadataFormatJSON
	}

	return &MetadataWriterImpl{format: format}
}

// NewEpisodeMetadata collects the sidecar fields of an episode.
func NewEpisodeMetadata(feed *Feed, episode *Episode) *EpisodeMetadata {
	metadata := &EpisodeMetadata{
		Title:         episode.DisplayTitle(),
		Date:          episode.PublishedRaw,
		URL:           episode.EnclosureURL,
		Description:   episode.Description,
		Duration:      episode.Duration,
		Author:        episode.Author,
		GUID:          episode.GUID,
		Link:          episode.Link,
		EpisodeNumber: episode.EpisodeNumber,
		Categories:    episode.Categories,
	}

	if episode.PublishedAt != nil {
		metadata.Date = episode.PublishedAt.Format(time.RFC3339)
	}

	if feed != nil {
		metadata.Podcast = feed.Title
	}

	return metadata
}

// Write serializes the episode fields to path, replacing any existing file.
func (w *MetadataWriterImpl) Write(path string, feed *Feed, episode *Episode) error {
	content, err := w.Marshal(NewEpisodeMetadata(feed, episode))
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Clean(path), content, constants.DefaultFilePermissions)
}

// Marshal encodes a sidecar document in the writer's format.
func (w *MetadataWriterImpl) Marshal(metadata *EpisodeMetadata) ([]byte, error) {
	var buffer bytes.Buffer

	if w.format == config.MetadataFormatYAML {
		encoder := yaml.NewEncoder(&buffer)
		encoder.SetIndent(2)

		if err := encoder.Encode(metadata); err != nil {
			return nil, err
		}

		if err := encoder.Close(); err != nil {
			return nil, err
		}

		return buffer.Bytes(), nil
	}

	encoder := json.NewEncoder(&buffer)
	encoder.SetIndent("", "  ")
	// Descriptions are usually HTML and must stay readable.
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(metadata); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}
