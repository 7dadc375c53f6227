package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/podcast-grabber/internal/apperror"
	"github.com/oshokin/podcast-grabber/internal/constants"
)

func validConfig() *Config {
	return &Config{
		FeedURL:                 "https://example.com/feed.xml",
		OutputPath:              "/tmp/podcasts",
		Threads:                 1,
		MetadataFormat:          "json",
		EpisodeFilenameTemplate: DefaultEpisodeFilenameTemplate,
		PodcastFolderTemplate:   DefaultPodcastFolderTemplate,
		MaxFilenameLength:       DefaultMaxFilenameLength,
		LogLevel:                "info",
	}
}

// TestLoadConfig tests the LoadConfig function.
func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		configFilename string
		configContent  string
		expectError    bool
		expectedError  string
		check          func(t *testing.T, cfg *Config)
	}{
		{
			name:           "valid config file",
			configFilename: "valid_config.yaml",
			configContent: `
output_path: "/tmp/podcasts"
count: 5
threads: 4
save_metadata: true
metadata_format: "yaml"
episode_filename_template: "{{.episodeNumber}} - {{.episodeTitle}}"
create_podcast_folder: true
max_filename_length: 100
write_tags: true
log_level: "debug"
user_agent: "Custom/1.0"
request_timeout: "30s"
`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()

				assert.Equal(t, "/tmp/podcasts", cfg.OutputPath)
				assert.Equal(t, int64(5), cfg.Count)
				assert.Equal(t, int64(4), cfg.Threads)
				assert.True(t, cfg.SaveMetadata)
				assert.Equal(t, "yaml", cfg.MetadataFormat)
				assert.Equal(t, "{{.episodeNumber}} - {{.episodeTitle}}", cfg.EpisodeFilenameTemplate)
				assert.Equal(t, DefaultPodcastFolderTemplate, cfg.PodcastFolderTemplate)
				assert.True(t, cfg.CreatePodcastFolder)
				assert.Equal(t, int64(100), cfg.MaxFilenameLength)
				assert.True(t, cfg.WriteTags)
				assert.Equal(t, "debug", cfg.LogLevel)
				assert.Equal(t, "Custom/1.0", cfg.UserAgent)
				assert.Equal(t, "30s", cfg.RequestTimeout)
			},
		},
		{
			name:           "partial config keeps defaults",
			configFilename: "partial.yaml",
			configContent:  "threads: 3\n",
			check: func(t *testing.T, cfg *Config) {
				t.Helper()

				assert.Equal(t, int64(3), cfg.Threads)
				assert.Equal(t, int64(0), cfg.Count)
				assert.Equal(t, "json", cfg.MetadataFormat)
				assert.Equal(t, DefaultEpisodeFilenameTemplate, cfg.EpisodeFilenameTemplate)
				assert.Equal(t, int64(DefaultMaxFilenameLength), cfg.MaxFilenameLength)
				assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
			},
		},
		{
			name:           "non-existent explicit file",
			configFilename: "non_existent.yaml",
			expectError:    true,
			expectedError:  "failed to read config from file",
		},
		{
			name:           "invalid yaml",
			configFilename: "invalid.yaml",
			configContent: `
invalid: yaml: content: [unclosed
`,
			expectError:   true,
			expectedError: "failed to read config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), tt.configFilename)

			if tt.configContent != "" {
				err := os.WriteFile(configPath, []byte(tt.configContent), constants.DefaultFilePermissions)
				require.NoError(t, err)
			}

			cfg, err := LoadConfig(configPath)

			if tt.expectError {
				require.Error(t, err)
				require.ErrorIs(t, err, apperror.ErrArgument)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.check(t, cfg)
		})
	}
}

// TestLoadConfig_MissingDefaultFile tests that a missing default config file yields built-in defaults.
//
//nolint:paralleltest // Changes the working directory.
func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, int64(DefaultThreads), cfg.Threads)
	assert.Equal(t, int64(0), cfg.Count)
	assert.False(t, cfg.SaveMetadata)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

// TestValidateConfig tests the ValidateConfig function.
func TestValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		modify      func(cfg *Config)
		expectedErr error
		errorMsg    string
	}{
		{
			name:   "valid config",
			modify: func(_ *Config) {},
		},
		{
			name:        "empty feed URL",
			modify:      func(cfg *Config) { cfg.FeedURL = "  " },
			expectedErr: ErrEmptyFeedURL,
		},
		{
			name:        "relative feed URL",
			modify:      func(cfg *Config) { cfg.FeedURL = "feed.xml" },
			expectedErr: ErrInvalidFeedURL,
		},
		{
			name:        "unsupported scheme",
			modify:      func(cfg *Config) { cfg.FeedURL = "ftp://example.com/feed.xml" },
			expectedErr: ErrInvalidFeedURL,
		},
		{
			name:        "missing host",
			modify:      func(cfg *Config) { cfg.FeedURL = "https:///feed.xml" },
			expectedErr: ErrInvalidFeedURL,
		},
		{
			name:        "empty output path",
			modify:      func(cfg *Config) { cfg.OutputPath = "" },
			expectedErr: ErrEmptyOutputPath,
		},
		{
			name:        "negative count",
			modify:      func(cfg *Config) { cfg.Count = -1 },
			expectedErr: ErrInvalidCount,
		},
		{
			name:        "zero threads",
			modify:      func(cfg *Config) { cfg.Threads = 0 },
			expectedErr: ErrInvalidThreads,
		},
		{
			name:        "unknown metadata format",
			modify:      func(cfg *Config) { cfg.MetadataFormat = "xml" },
			expectedErr: ErrUnknownMetadataFormat,
		},
		{
			name:        "max filename length too small",
			modify:      func(cfg *Config) { cfg.MaxFilenameLength = 5 },
			expectedErr: ErrInvalidMaxFilenameLength,
		},
		{
			name:        "invalid log level",
			modify:      func(cfg *Config) { cfg.LogLevel = "invalid" },
			expectedErr: ErrUnknownLogLevel,
		},
		{
			name:     "invalid request timeout",
			modify:   func(cfg *Config) { cfg.RequestTimeout = "soon" },
			errorMsg: "failed to parse request timeout",
		},
		{
			name:        "negative request timeout",
			modify:      func(cfg *Config) { cfg.RequestTimeout = "-5s" },
			expectedErr: ErrInvalidRequestTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := ValidateConfig(cfg)

			if tt.expectedErr == nil && tt.errorMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, zapcore.InfoLevel, cfg.ParsedLogLevel)
				assert.Equal(t, "example.com", cfg.ParsedFeedURL.Host)

				return
			}

			require.Error(t, err)
			require.ErrorIs(t, err, apperror.ErrArgument)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			}

			if tt.errorMsg != "" {
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
		})
	}
}

// TestValidateConfig_DerivedFields tests normalization of derived fields.
func TestValidateConfig_DerivedFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		metadataFormat  string
		requestTimeout  string
		expectedFormat  MetadataFormat
		expectedTimeout time.Duration
	}{
		{name: "defaults", metadataFormat: "", requestTimeout: "", expectedFormat: MetadataFormatJSON},
		{name: "yaml upper case", metadataFormat: "YAML", requestTimeout: "0", expectedFormat: MetadataFormatYAML},
		{name: "yml alias", metadataFormat: "yml", requestTimeout: "1m", expectedFormat: MetadataFormatYAML,
			expectedTimeout: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.MetadataFormat = tt.metadataFormat
			cfg.RequestTimeout = tt.requestTimeout
			cfg.EpisodeFilenameTemplate = ""
			cfg.MaxFilenameLength = 0

			require.NoError(t, ValidateConfig(cfg))
			assert.Equal(t, tt.expectedFormat, cfg.ParsedMetadataFormat)
			assert.Equal(t, tt.expectedTimeout, cfg.ParsedRequestTimeout)
			assert.Equal(t, DefaultEpisodeFilenameTemplate, cfg.EpisodeFilenameTemplate)
			assert.Equal(t, int64(DefaultMaxFilenameLength), cfg.MaxFilenameLength)
		})
	}
}

// TestMetadataFormat_Extension tests the Extension method.
func TestMetadataFormat_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".json", MetadataFormatJSON.Extension())
	assert.Equal(t, ".yaml", MetadataFormatYAML.Extension())
	assert.Equal(t, ".json", MetadataFormat("").Extension())
}

// TestWriteDefaultConfig tests that the generated file round-trips through LoadConfig.
func TestWriteDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "generated.yaml")

	require.NoError(t, WriteDefaultConfig(path, false))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(content, &decoded))
	assert.Equal(t, DefaultEpisodeFilenameTemplate, decoded["episode_filename_template"])
	assert.Contains(t, string(content), "# Number of episodes downloaded simultaneously.")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultThreads), cfg.Threads)
	assert.Equal(t, DefaultEpisodeFilenameTemplate, cfg.EpisodeFilenameTemplate)

	err = WriteDefaultConfig(path, false)
	require.ErrorIs(t, err, ErrConfigFileExists)

	require.NoError(t, WriteDefaultConfig(path, true))
}
