package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/podcast-grabber/internal/apperror"
	"github.com/oshokin/podcast-grabber/internal/constants"
	"github.com/oshokin/podcast-grabber/internal/logger"
)

// MetadataFormat is the serialization format of episode sidecar files.
type MetadataFormat string

const (
	// MetadataFormatJSON writes indented JSON sidecars.
	MetadataFormatJSON MetadataFormat = "json"
	// MetadataFormatYAML writes YAML sidecars.
	MetadataFormatYAML MetadataFormat = "yaml"
)

// Extension returns the sidecar file extension for the format.
func (f MetadataFormat) Extension() string {
	if f == MetadataFormatYAML {
		return constants.ExtensionYAML
	}

	return constants.ExtensionJSON
}

// Config holds all configuration settings.
type Config struct {
	// FeedURL is the RSS/Atom feed to download episodes from.
	FeedURL string `mapstructure:"feed_url"`
	// OutputPath is the directory path where downloaded files will be saved.
	OutputPath string `mapstructure:"output_path"`
	// Count limits the download to the N newest episodes. Zero means all episodes.
	Count int64 `mapstructure:"count"`
	// Threads is the number of episodes downloaded simultaneously.
	Threads int64 `mapstructure:"threads"`
	// SaveMetadata enables a sidecar metadata file next to every downloaded episode.
	SaveMetadata bool `mapstructure:"save_metadata"`
	// MetadataFormat selects the sidecar format: "json" or "yaml".
	MetadataFormat string `mapstructure:"metadata_format"`
	// EpisodeFilenameTemplate is the template for naming episode files, extension excluded.
	EpisodeFilenameTemplate string `mapstructure:"episode_filename_template"`
	// PodcastFolderTemplate is the template for naming the podcast sub-folder.
	PodcastFolderTemplate string `mapstructure:"podcast_folder_template"`
	// CreatePodcastFolder places episodes into a sub-folder named after the podcast.
	CreatePodcastFolder bool `mapstructure:"create_podcast_folder"`
	// MaxFilenameLength is the maximum length of a file or folder name in characters, extension excluded.
	MaxFilenameLength int64 `mapstructure:"max_filename_length"`
	// WriteTags writes ID3v2 (MP3) or Vorbis comment (FLAC) tags into downloaded files.
	WriteTags bool `mapstructure:"write_tags"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// UserAgent overrides the User-Agent header sent with every request.
	UserAgent string `mapstructure:"user_agent"`
	// RequestTimeout bounds every HTTP request including body transfer (e.g., "30s"). Empty or "0" disables it.
	RequestTimeout string `mapstructure:"request_timeout"`
	// DryRun indicates whether to preview downloads without fetching episodes.
	DryRun bool
	// ParsedFeedURL is the validated feed URL.
	ParsedFeedURL *url.URL
	// ParsedMetadataFormat is the normalized sidecar format.
	ParsedMetadataFormat MetadataFormat
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level
	// ParsedRequestTimeout is the parsed request timeout.
	ParsedRequestTimeout time.Duration
}

const (
	// DefaultConfigFilename is the default name of the configuration file.
	// It is optional: a missing default file means built-in defaults.
	DefaultConfigFilename = ".podcast-grabber.yaml"

	// DefaultEpisodeFilenameTemplate yields names such as "2023-06-01 - Episode title".
	DefaultEpisodeFilenameTemplate = "{{if .publishDate}}{{.publishDate}} - {{end}}{{.episodeTitle}}"

	// DefaultPodcastFolderTemplate is the default template for the podcast sub-folder.
	DefaultPodcastFolderTemplate = "{{.podcastTitle}}"

	// DefaultMaxFilenameLength is the default rune limit of a name. Names are also capped
	// at 200 UTF-8 bytes, so long non-ASCII titles stay below the 255-byte file system limit.
	DefaultMaxFilenameLength = 150

	// DefaultThreads is the default number of concurrent downloads.
	DefaultThreads = 1

	// DefaultLogLevel is the default logging verbosity.
	DefaultLogLevel = "info"

	// minFilenameLength leaves room for a date prefix and a collision suffix.
	minFilenameLength = 16
)

// Static error definitions for better error handling.
var (
	// ErrEmptyFeedURL indicates that no feed URL was given.
	ErrEmptyFeedURL = errors.New("feed URL cannot be empty")
	// ErrInvalidFeedURL indicates that the feed URL is not an absolute http(s) URL.
	ErrInvalidFeedURL = errors.New("feed URL must be an absolute http or https URL")
	// ErrEmptyOutputPath indicates that no output directory was given.
	ErrEmptyOutputPath = errors.New("output path cannot be empty")
	// ErrInvalidCount indicates that the episode count is negative.
	ErrInvalidCount = errors.New("count must be a positive integer")
	// ErrInvalidThreads indicates that the thread count is not positive.
	ErrInvalidThreads = errors.New("threads must be a positive integer")
	// ErrUnknownMetadataFormat indicates that the sidecar format is not supported.
	ErrUnknownMetadataFormat = errors.New("unknown metadata format")
	// ErrInvalidMaxFilenameLength indicates that the filename length limit is too small.
	ErrInvalidMaxFilenameLength = errors.New("max_filename_length is too small")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidRequestTimeout indicates that the request timeout is negative.
	ErrInvalidRequestTimeout = errors.New("request_timeout cannot be negative")
	// ErrConfigFileExists indicates that WriteDefaultConfig would overwrite an existing file.
	ErrConfigFileExists = errors.New("config file already exists")
)

// setDefaults registers built-in values for every key so that a missing file still yields a full config.
func setDefaults(v *viper.Viper) {
	v.SetDefault("feed_url", "")
	v.SetDefault("output_path", "")
	v.SetDefault("count", 0)
	v.SetDefault("threads", DefaultThreads)
	v.SetDefault("save_metadata", false)
	v.SetDefault("metadata_format", string(MetadataFormatJSON))
	v.SetDefault("episode_filename_template", DefaultEpisodeFilenameTemplate)
	v.SetDefault("podcast_folder_template", DefaultPodcastFolderTemplate)
	v.SetDefault("create_podcast_folder", false)
	v.SetDefault("max_filename_length", DefaultMaxFilenameLength)
	v.SetDefault("write_tags", false)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("user_agent", "")
	v.SetDefault("request_timeout", "")
}

// LoadConfig loads configuration settings from a YAML file on top of built-in defaults.
// An empty filename means DefaultConfigFilename, which may be absent.
// An explicitly named file must exist.
func LoadConfig(configFilename string) (*Config, error) {
	isExplicit := configFilename != ""
	if !isExplicit {
		configFilename = DefaultConfigFilename
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configFilename)
	v.SetConfigType("yaml")

	err := v.ReadInConfig()

	switch {
	case err == nil:
	case !isExplicit && errors.Is(err, fs.ErrNotExist):
		// No default config file, defaults apply.
	default:
		return nil, apperror.Argument("load config", fmt.Errorf("failed to read config from file: %w", err))
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, apperror.Argument("load config", fmt.Errorf("failed to unmarshal config: %w", err))
	}

	return &cfg, nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
// Every returned error is of kind apperror.KindArgument.
//
//nolint:funlen,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var err error

	cfg.ParsedFeedURL, err = parseFeedURL(cfg.FeedURL)
	if err != nil {
		return apperror.Argument("validate config", err)
	}

	cfg.OutputPath = strings.TrimSpace(cfg.OutputPath)
	if cfg.OutputPath == "" {
		return apperror.Argument("validate config", ErrEmptyOutputPath)
	}

	if cfg.Count < 0 {
		return apperror.Argument("validate config", fmt.Errorf("%w: got %d", ErrInvalidCount, cfg.Count))
	}

	if cfg.Threads < 1 {
		return apperror.Argument("validate config", fmt.Errorf("%w: got %d", ErrInvalidThreads, cfg.Threads))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.MetadataFormat)) {
	case "", string(MetadataFormatJSON):
		cfg.ParsedMetadataFormat = MetadataFormatJSON
	case string(MetadataFormatYAML), "yml":
		cfg.ParsedMetadataFormat = MetadataFormatYAML
	default:
		return apperror.Argument("validate config",
			fmt.Errorf("%w: '%s', expected json or yaml", ErrUnknownMetadataFormat, cfg.MetadataFormat))
	}

	if strings.TrimSpace(cfg.EpisodeFilenameTemplate) == "" {
		cfg.EpisodeFilenameTemplate = DefaultEpisodeFilenameTemplate
	}

	if strings.TrimSpace(cfg.PodcastFolderTemplate) == "" {
		cfg.PodcastFolderTemplate = DefaultPodcastFolderTemplate
	}

	if cfg.MaxFilenameLength == 0 {
		cfg.MaxFilenameLength = DefaultMaxFilenameLength
	}

	if cfg.MaxFilenameLength < minFilenameLength {
		return apperror.Argument("validate config",
			fmt.Errorf("%w: must be at least %d", ErrInvalidMaxFilenameLength, minFilenameLength))
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return apperror.Argument("validate config", fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel))
	}

	cfg.ParsedLogLevel = parsedLogLevel

	requestTimeout := strings.TrimSpace(cfg.RequestTimeout)
	if requestTimeout != "" && requestTimeout != "0" {
		cfg.ParsedRequestTimeout, err = time.ParseDuration(requestTimeout)
		if err != nil {
			return apperror.Argument("validate config", fmt.Errorf("failed to parse request timeout: %w", err))
		}

		if cfg.ParsedRequestTimeout < 0 {
			return apperror.Argument("validate config", ErrInvalidRequestTimeout)
		}
	}

	return nil
}

func parseFeedURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyFeedURL
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFeedURL, err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if (scheme != "http" && scheme != "https") || parsedURL.Host == "" {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidFeedURL, rawURL)
	}

	return parsedURL, nil
}

// defaultConfigEntry describes one key of the generated config file.
type defaultConfigEntry struct {
	key     string
	value   any
	comment string
}

// WriteDefaultConfig writes a commented config file holding every key with its default value.
// An existing file is kept unless overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	if !overwrite {
		_, err := os.Stat(path)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrConfigFileExists, path)
		}

		if !errors.Is(err, fs.ErrNotExist) {
			return apperror.IO("write default config", err)
		}
	}

	entries := []defaultConfigEntry{
		{"output_path", "", "Directory for downloaded episodes, created when absent."},
		{"count", 0, "Download only the N newest episodes; 0 downloads all of them."},
		{"threads", DefaultThreads, "Number of episodes downloaded simultaneously."},
		{"save_metadata", false, "Write a metadata file next to every episode."},
		{"metadata_format", string(MetadataFormatJSON), "Metadata file format: json or yaml."},
		{"episode_filename_template", DefaultEpisodeFilenameTemplate,
			"Available fields: episodeTitle, episodeNumber, publishDate, publishYear, podcastTitle, podcastAuthor, guid."},
		{"podcast_folder_template", DefaultPodcastFolderTemplate, "Available fields: podcastTitle, podcastAuthor."},
		{"create_podcast_folder", false, "Put episodes into a sub-folder named after the podcast."},
		{"max_filename_length", DefaultMaxFilenameLength,
			"Maximum file name length in characters; names are also capped at 200 bytes."},
		{"write_tags", false, "Write ID3v2 (MP3) or Vorbis comment (FLAC) tags."},
		{"log_level", DefaultLogLevel, "One of: debug, info, warn, error."},
		{"user_agent", "", "User-Agent header; empty uses the built-in one."},
		{"request_timeout", "", "Per-request timeout such as 30s; empty means none."},
	}

	mapping := &yaml.Node{Kind: yaml.MappingNode}

	for _, entry := range entries {
		var valueNode yaml.Node
		if err := valueNode.Encode(entry.value); err != nil {
			return fmt.Errorf("failed to encode %s: %w", entry.key, err)
		}

		if _, ok := entry.value.(string); ok {
			valueNode.Style = yaml.DoubleQuotedStyle
		}

		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: entry.key, HeadComment: entry.comment},
			&valueNode,
		)
	}

	content, err := yaml.Marshal(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}})
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(path, content, constants.DefaultFilePermissions); err != nil {
		return apperror.IO("write default config", err)
	}

	return nil
}
