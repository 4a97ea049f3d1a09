package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aaronromeo/swolecoach/internal/app"
	"github.com/aaronromeo/swolecoach/internal/config"
	"github.com/aaronromeo/swolecoach/internal/httpapi"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := app.NewLogger(os.Stdout, cfg.Debug)
	slog.SetDefault(logger)

	a, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close() //nolint:errcheck

	server := httpapi.NewServer(a, logger)
	log.Printf("listening on %s", cfg.Addr)
	if err := server.Listen(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
