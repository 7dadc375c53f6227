package podcast

import (
	"bytes"
	"context"
	"text/template"

	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/logger"
)

// Template field names available to filename and folder templates.
const (
	tagEpisodeTitle  = "episodeTitle"
	tagEpisodeNumber = "episodeNumber"
	tagPublishDate   = "publishDate"
	tagPublishYear   = "publishYear"
	tagPodcastTitle  = "podcastTitle"
	tagPodcastAuthor = "podcastAuthor"
	tagGUID          = "guid"
)

// TemplateManager renders episode file names and podcast folder names.
type TemplateManager interface {
	// GetEpisodeFilename renders the base file name of an episode, without extension.
	GetEpisodeFilename(ctx context.Context, tags map[string]string) string

	// GetPodcastFolderName renders the name of the podcast sub-folder.
	GetPodcastFolderName(ctx context.Context, tags map[string]string) string
}

// TemplateManagerImpl implements the TemplateManager interface.
type TemplateManagerImpl struct {
	// episodeFilenameTemplate is the template for episode file names.
	episodeFilenameTemplate *template.Template
	// podcastFolderTemplate is the template for podcast folder names.
	podcastFolderTemplate *template.Template
	// defaultEpisodeFilenameTemplate is the fallback template for episode file names.
	defaultEpisodeFilenameTemplate *template.Template
	// defaultPodcastFolderTemplate is the fallback template for podcast folder names.
	defaultPodcastFolderTemplate *template.Template
}

// NewTemplateManager creates and returns a new instance of TemplateManagerImpl.
// Templates that fail to parse are logged and replaced by the defaults.
func NewTemplateManager(ctx context.Context, cfg *config.Config) TemplateManager {
	defaultEpisodeFilenameTemplate := template.Must(
		template.New("defaultEpisodeFilenameTemplate").Option("missingkey=zero").Parse(config.DefaultEpisodeFilenameTemplate))
	defaultPodcastFolderTemplate := template.Must(
		template.New("defaultPodcastFolderTemplate").Option("missingkey=zero").Parse(config.DefaultPodcastFolderTemplate))

	episodeFilenameTemplate, err := template.New("episodeFilenameTemplate").
		Option("missingkey=zero").
		Parse(cfg.EpisodeFilenameTemplate)
	if err != nil {
		logger.Errorf(ctx, "Failed to parse episode filename template, using default: %v", err)

		episodeFilenameTemplate = nil
	}

	podcastFolderTemplate, err := template.New("podcastFolderTemplate").
		Option("missingkey=zero").
		Parse(cfg.PodcastFolderTemplate)
	if err != nil {
		logger.Errorf(ctx, "Failed to parse podcast folder template, using default: %v", err)

		podcastFolderTemplate = nil
	}

	return &TemplateManagerImpl{
		episodeFilenameTemplate:        episodeFilenameTemplate,
		podcastFolderTemplate:          podcastFolderTemplate,
		defaultEpisodeFilenameTemplate: defaultEpisodeFilenameTemplate,
		defaultPodcastFolderTemplate:   defaultPodcastFolderTemplate,
	}
}

// GetEpisodeFilename renders the base file name of an episode, without extension.
func (m *TemplateManagerImpl) GetEpisodeFilename(ctx context.Context, tags map[string]string) string {
	return execute(ctx, m.episodeFilenameTemplate, m.defaultEpisodeFilenameTemplate, tags)
}

// GetPodcastFolderName renders the name of the podcast sub-folder.
func (m *TemplateManagerImpl) GetPodcastFolderName(ctx context.Context, tags map[string]string) string {
	return execute(ctx, m.podcastFolderTemplate, m.defaultPodcastFolderTemplate, tags)
}

func execute(ctx context.Context, textBuilder, defaultTextBuilder *template.Template, tags map[string]string) string {
	var buffer bytes.Buffer

	if textBuilder != nil {
		err := textBuilder.Execute(&buffer, tags)
		if err == nil {
			return buffer.String()
		}

		logger.Errorf(ctx, "Failed to execute template %q, using default: %v", textBuilder.Name(), err)
		buffer.Reset()
	}

	_ = defaultTextBuilder.Execute(&buffer, tags) //nolint:errcheck // Default template is always valid.

	return buffer.String()
}
