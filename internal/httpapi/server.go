// Package httpapi serves coaching turns and history over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/moby/locker"

	"github.com/aaronromeo/swolecoach/internal/history"
	"github.com/aaronromeo/swolecoach/internal/pipeline"
)

// Backend is what the routes need from the application; *app.App
// implements it.
type Backend interface {
	Turn(ctx context.Context, req pipeline.Request) pipeline.State
	RecentHistory(userID string, n int) ([]history.Entry, error)
}

func NewServer(b Backend, logger *slog.Logger) *fiber.App {
	if logger == nil {
		logger = slog.Default()
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true, ReadTimeout: 30 * time.Second, WriteTimeout: 120 * time.Second})
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	r := &routes{backend: b, locks: locker.New(), logger: logger}
	v1 := app.Group("/v1")
	v1.Post("/turns", r.postTurn)
	v1.Get("/users/:id/history", r.getHistory)
	return app
}
