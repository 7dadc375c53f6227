package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/logger"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration file management commands",
		Long: `Manage the configuration file.

Use 'config init' to write a commented configuration file with every setting at its default value.`,
		PersistentPreRun: func(*cobra.Command, []string) {},
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Long: `Writes a configuration file with every setting at its default value.

The file is written to the path given by --config, or to '` + config.DefaultConfigFilename + `'
in the current directory. An existing file is kept unless --force is set.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			force, _ := cmd.Flags().GetBool("force")

			path := configFilenameFromFlag
			if path == "" {
				path = config.DefaultConfigFilename
			}

			if err := config.WriteDefaultConfig(path, force); err != nil {
				logger.Fatalf(ctx, "Failed to write configuration: %v", err)
			}

			logger.Infof(ctx, "Configuration written to %s", path)
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing configuration file.")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
