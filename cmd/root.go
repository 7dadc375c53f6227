package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/podcast-grabber/internal/app"
	"github.com/oshokin/podcast-grabber/internal/apperror"
	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/logger"
	"github.com/oshokin/podcast-grabber/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "podcast-grabber -u <feed_url> -o <output_dir> [flags]",
		Short: "Download podcast episodes from an RSS or Atom feed.",
		Long: `Podcast Grabber is a CLI tool for downloading podcast episodes.
It reads an RSS or Atom feed and downloads:
- Every episode with an audio enclosure, or only the N newest ones
- Optionally in parallel, with a fixed number of workers
- Optionally with a JSON or YAML metadata file next to every episode
- Optionally with ID3v2 (MP3) or Vorbis comment (FLAC) tags

Settings may also come from a YAML configuration file; flags take precedence.`,
		Version:          version.Short(),
		Args:             cobra.NoArgs,
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()

			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				logger.Fatalf(ctx, "Failed to parse flags: %v", err)
			}

			logger.SetLevel(appConfig.ParsedLogLevel)

			err := app.ExecuteRootCommand(ctx, appConfig)

			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				logger.Fatal(ctx, "Download interrupted")
			default:
				logger.Fatalf(ctx, "Download failed: %v", err)
			}
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	err := executeUntilDone(ctx, stop, rootCmd.ExecuteContext)
	cobra.CheckErr(err)
}

// executeUntilDone runs execute in its own goroutine and waits for it to return.
// The first signal only cancels ctx so running downloads wind down and the summary is printed;
// stop then restores the default handlers, so a second signal terminates the process at once.
func executeUntilDone(
	ctx context.Context,
	stop context.CancelFunc,
	execute func(context.Context) error,
) error {
	done := make(chan error, 1)

	go func() {
		done <- execute(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		stop()
		logger.Warn(ctx, "Interrupt received, waiting for running downloads to stop (press Ctrl+C again to force)")

		return <-done
	}
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVar(
		&configFilenameFromFlag,
		"config",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	registerDownloadFlags(rootCmd.Flags())
}

// registerDownloadFlags declares every flag that overrides a configuration value.
func registerDownloadFlags(flags *pflag.FlagSet) {
	flags.StringP(
		"url",
		"u",
		"",
		"URL of the RSS or Atom feed (must be an absolute http or https URL).")

	flags.StringP(
		"output",
		"o",
		"",
		"directory to save downloaded files (the path will be created if it doesn't exist).")

	flags.Int64P(
		"count",
		"c",
		0,
		"download only the N newest episodes (default: all episodes).")

	flags.Int64P(
		"threads",
		"t",
		config.DefaultThreads,
		"number of episodes downloaded simultaneously.")

	flags.BoolP(
		"metadata",
		"m",
		false,
		"save a metadata file next to every downloaded episode.")

	flags.String(
		"metadata-format",
		"",
		"metadata file format: json or yaml (default: json).")

	flags.Bool(
		"tags",
		false,
		"write ID3v2 (MP3) or Vorbis comment (FLAC) tags into downloaded files.")

	flags.Bool(
		"podcast-folder",
		false,
		"place episodes into a sub-folder named after the podcast.")

	flags.Bool(
		"dry-run",
		false,
		"show what would be downloaded without fetching any episode.")

	flags.String(
		"log-level",
		"",
		"logging level: debug, info, warn or error.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if level, ok := logger.ParseLogLevel(appConfig.LogLevel); ok {
		logger.SetLevel(level)
	}
}

//nolint:cyclop // One branch per flag.
func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("url"); flag != nil && flag.Changed {
		cfg.FeedURL, _ = flags.GetString("url")
	}

	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("count"); flag != nil && flag.Changed {
		cfg.Count, _ = flags.GetInt64("count")

		// Zero in the config file means "all", but an explicit -c must name a positive amount.
		if cfg.Count < 1 {
			return apperror.Argument("parse flags", fmt.Errorf("%w: got %d", config.ErrInvalidCount, cfg.Count))
		}
	}

	if flag := flags.Lookup("threads"); flag != nil && flag.Changed {
		cfg.Threads, _ = flags.GetInt64("threads")
	}

	if flag := flags.Lookup("metadata"); flag != nil && flag.Changed {
		cfg.SaveMetadata, _ = flags.GetBool("metadata")
	}

	if flag := flags.Lookup("metadata-format"); flag != nil && flag.Changed {
		cfg.MetadataFormat, _ = flags.GetString("metadata-format")
	}

	if flag := flags.Lookup("tags"); flag != nil && flag.Changed {
		cfg.WriteTags, _ = flags.GetBool("tags")
	}

	if flag := flags.Lookup("podcast-folder"); flag != nil && flag.Changed {
		cfg.CreatePodcastFolder, _ = flags.GetBool("podcast-folder")
	}

	if flag := flags.Lookup("dry-run"); flag != nil && flag.Changed {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}

	if flag := flags.Lookup("log-level"); flag != nil && flag.Changed {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}

	return config.ValidateConfig(cfg)
}
