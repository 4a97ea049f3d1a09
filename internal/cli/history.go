package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aaronromeo/swolecoach/internal/history"
)

var (
	historyUser  string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and import a user's exercise history",
	Long: `Inspect and import a user's exercise history.

Subcommands:
  import   Append dated entries from a markdown training log
  show     Print the latest entries
  stats    Print totals over the whole history`,
}

var historyImportCmd = &cobra.Command{
	Use:   "import <url|file>",
	Short: "Import a markdown training log",
	Long: `Import a markdown training log from a local file or an http(s) URL.

Lines of the form "- 2025-03-01: sentadilla 5x5 100kg" are appended with
their own date; other lines are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyUser == "" {
			return errors.New("--user is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		imported, skipped, err := a.ImportHistory(cmd.Context(), historyUser, args[0])
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Imported %d entries for %s", green("✓"), imported, historyUser)
		if skipped > 0 {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf(" (%s)", yellow(fmt.Sprintf("%d lines not understood", skipped)))
		}
		fmt.Println()
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the latest entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := historyStore()
		if err != nil {
			return err
		}
		entries, err := store.Last(historyUser, historyLimit)
		if err != nil {
			return err
		}
		fmt.Println(history.FormatRecent(entries))
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print totals over the whole history",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := historyStore()
		if err != nil {
			return err
		}
		entries, err := store.All(historyUser)
		if err != nil {
			return err
		}
		fmt.Println(history.FormatStats(entries))
		return nil
	},
}

// historyStore opens the store alone; reading history needs no model.
func historyStore() (*history.Store, error) {
	if historyUser == "" {
		return nil, errors.New("--user is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.HistoryDir), nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyImportCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyStatsCmd)

	historyCmd.PersistentFlags().StringVarP(&historyUser, "user", "u", "", "user id")
	historyShowCmd.Flags().IntVarP(&historyLimit, "limit", "n", 7, "number of entries")
}
