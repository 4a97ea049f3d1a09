package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aaronromeo/swolecoach/internal/app"
	"github.com/aaronromeo/swolecoach/internal/config"
)

var (
	version = "0.1.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "swolecoach",
	Short: "Personal training coach backed by a reference book",
	Long: `swolecoach builds citation-backed workout routines from a training book,
logs exercises and answers questions about your history.

Get started:
  swolecoach index                 Embed REFERENCE_SOURCE into the local index
  swolecoach chat --user ana       Talk to the coach
  swolecoach serve                 Run the HTTP API`,
	Version:      version,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show the step trace and debug logs")
	rootCmd.SetVersionTemplate(fmt.Sprintf("swolecoach version %s\n", version))
}

// loadConfig reads the environment and applies --verbose.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Debug = true
	}
	return cfg, nil
}

// openApp logs to stderr so the chat transcript on stdout stays clean.
func openApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	logger := app.NewLogger(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)
	return app.Build(ctx, cfg, logger)
}
