package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matkrin/mdecd/internal/config"
)

const name = "mdecd"

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   name,
		Short: "Markdown formatting language server driven by .editorconfig",
		Long: `mdecd formats Markdown indentation, trailing whitespace, final newlines
and line endings according to .editorconfig. Without a subcommand it runs
the language server on stdio.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.Version = version

	rootCmd.PersistentFlags().String("config", config.DefaultPath(), "settings file")
	rootCmd.Flags().AddFlagSet(logFlags())

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFmtCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func logFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("log", pflag.ContinueOnError)
	flags.String("log-level", "", "log level (debug|info|warn|error), overrides the settings file")
	flags.String("log-file", "", "log file, overrides the settings file")
	return flags
}

// loadSettings reads the settings file named by --config.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Settings{}, err
	}
	settings, err := config.Load(path)
	if err != nil {
		return config.Settings{}, fmt.Errorf("settings: %w", err)
	}
	return settings, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
