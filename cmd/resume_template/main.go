// Package main implements the resume_template CLI for authoring resume
// templates, checking documents against them, filling them from source
// material and serving them over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/resume-template/internal/config"
	"github.com/jonathan/resume-template/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	// settings and logger are populated before any subcommand runs.
	settings *config.Config
	logger   = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:               "resume_template",
	Short:             "Resume template authoring and filling tool",
	Long:              "resume_template validates resume templates, checks documents against them, fills them from a profile with an LLM and renders the result.",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	merged := cfg.MergeWithDefaults(config.Defaults())
	if verbose {
		merged.Verbose = true
	}
	settings = &merged
	logger = logging.NewConsole(cmd.ErrOrStderr(), merged.Verbose)
	return nil
}

// current returns the loaded settings, or the defaults when a command runs
// without the root pre-run hook.
func current() *config.Config {
	if settings == nil {
		d := config.Defaults()
		return &d
	}
	return settings
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
