package cli

import (
	"github.com/spf13/cobra"

	"github.com/aaronromeo/swolecoach/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		a, err := openApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		server := httpapi.NewServer(a, a.Logger)
		a.Logger.Info("listening", "addr", cfg.Addr)
		return server.Listen(cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides ADDR)")
	rootCmd.AddCommand(serveCmd)
}
