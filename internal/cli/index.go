package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var indexSource string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the reference book into the retrieval index",
	Long: `Load REFERENCE_SOURCE (a .txt/.md/.html file or an http(s) URL), split it
into page-labelled chunks and store their embeddings in RAG_INDEX_PATH.

Chunks already embedded with the configured model are skipped, so the
command can be re-run after the source changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if indexSource != "" {
			cfg.ReferenceSource = indexSource
		}
		a, err := openApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		stats, err := a.BuildIndex(cmd.Context())
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Indexed %s into %s\n", green("✓"), cfg.ReferenceSource, cfg.RAGIndexPath)
		fmt.Printf("  pages: %d  chunks: %d  embedded: %d  skipped: %d\n", stats.Pages, stats.Chunks, stats.Embedded, stats.Skipped)
		return nil
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexSource, "source", "", "reference source (overrides REFERENCE_SOURCE)")
	rootCmd.AddCommand(indexCmd)
}
