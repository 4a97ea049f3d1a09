package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/moby/locker"

	"github.com/aaronromeo/swolecoach/internal/history"
	"github.com/aaronromeo/swolecoach/internal/pipeline"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

type routes struct {
	backend Backend
	locks   *locker.Locker
	logger  *slog.Logger
}

type turnRequest struct {
	UserID      string `json:"user_id"`
	Message     string `json:"message"`
	RequestType string `json:"request_type,omitempty"`
}

type turnResponse struct {
	TurnID    string           `json:"turn_id"`
	Step      string           `json:"step"`
	Response  string           `json:"response"`
	ErrorKind string           `json:"error_kind,omitempty"`
	Routine   *workout.Routine `json:"routine,omitempty"`
}

// postTurn runs one message through the graph. Handled failures are still
// 200: the body carries the user-facing response and the error kind.
func (r *routes) postTurn(c *fiber.Ctx) error {
	var in turnRequest
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid json: " + err.Error()})
	}
	in.UserID = strings.TrimSpace(in.UserID)
	if in.UserID == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
	}

	rt := pipeline.RequestType(in.RequestType)
	if rt == "" {
		rt = pipeline.Classify(in.Message)
	}

	r.locks.Lock(in.UserID)
	st := r.backend.Turn(c.UserContext(), pipeline.Request{UserID: in.UserID, RequestType: rt, Message: in.Message})
	r.unlock(in.UserID)

	out := turnResponse{TurnID: st.TurnID, Step: st.Step, Response: st.Response, ErrorKind: string(st.Kind)}
	if st.Step == pipeline.StepSaved {
		out.Routine = st.Routine
	}
	return c.JSON(out)
}

func (r *routes) getHistory(c *fiber.Ctx) error {
	n := pipeline.DefaultHistoryLimit
	if q := c.Query("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v < 1 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "n must be a positive integer"})
		}
		n = v
	}

	userID := c.Params("id")
	r.locks.Lock(userID)
	entries, err := r.backend.RecentHistory(userID, n)
	r.unlock(userID)
	if err != nil {
		if errors.Is(err, history.ErrInvalidUser) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		r.logger.Warn("history read failed", "user_id", userID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "history read failed"})
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return c.JSON(fiber.Map{"user_id": userID, "entries": entries})
}

func (r *routes) unlock(userID string) {
	if err := r.locks.Unlock(userID); err != nil {
		r.logger.Error("user lock release failed", "user_id", userID, "error", err)
	}
}
