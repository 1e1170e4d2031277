// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"nimbus-bundler/internal/config"
	"nimbus-bundler/internal/pipeline"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "nimbus-bundler",
		Short: "Build an offline-installable nimbus bundle",
		Long: TitleStyle.Render("nimbus-bundler") + SubtitleStyle.Render(" - offline bundle builder for the nimbus CLI") + `

nimbus-bundler downloads every package needed to install nimbus on an
air-gapped machine: the pinned bootstrap toolchain, the full transitive
dependency set of the project, and a freshly built source distribution
of nimbus itself. The result, together with the bootstrap installer, is
compressed into a single nimbus-bundle.zip archive.

The run is driven entirely by compiled-in configuration; a TOML file or
NIMBUS_BUNDLER_* environment variables can override individual values.

` + SubtitleStyle.Render("Examples:") + `
  nimbus-bundler                 Build nimbus-bundle.zip in the current directory
  nimbus-bundler --verbose       Build with per-command diagnostics
  nimbus-bundler config          Show the effective configuration`,
		Args: cobra.NoArgs,
		RunE: runBundle,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML) overriding compiled-in defaults")

	// Add subcommands
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// newLogger builds the diagnostic logger all external command invocations
// report through.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func runBundle(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := newLogger()
	p := pipeline.New(cfg, cfg.NewRunner(logger), logger)

	archivePath, err := p.Run(cmd.Context())
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Fprintln(cmd.OutOrStdout(), archivePath)
	return nil
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
