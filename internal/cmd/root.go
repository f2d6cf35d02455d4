// Package cmd holds the signrelay CLI: the root command, the serve command
// that runs the HTTP proxy, and version reporting.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signrelay/signrelay/internal/observability"
	"github.com/signrelay/signrelay/internal/server/handlers"
)

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata injected via ldflags.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
	handlers.SetVersionInfo(version, commit, buildDate)
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "signrelay",
	Short: "E-signature proxy service",
	Long: `signrelay accepts PDF uploads, forwards them to the configured
e-signature provider, tracks each signing job in memory, and serves status
polls and signed document downloads.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return observability.InitCLILogger(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
}

// Execute runs the CLI with the given base context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// exitError creates an error that will cause the CLI to exit with the given code.
func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}
