package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaronromeo/swolecoach/internal/history"
	"github.com/aaronromeo/swolecoach/internal/llm"
	"github.com/aaronromeo/swolecoach/internal/profile"
	"github.com/aaronromeo/swolecoach/internal/prompts"
	"github.com/aaronromeo/swolecoach/internal/retrieval"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

const (
	DefaultTopK              = retrieval.DefaultTopK
	DefaultHistoryLimit      = 7
	DefaultMaxSessionMinutes = 60
)

// Model is the language-model surface the nodes need; *llm.Client
// implements it.
type Model interface {
	ExtractPrinciples(ctx context.Context, prompt string) (llm.Result[workout.Principles], error)
	GenerateRoutine(ctx context.Context, prompt string) (llm.Result[workout.RoutineDraft], error)
	ParseExerciseLog(ctx context.Context, text string) (history.Log, error)
}

// Deps are the collaborators of the graph. Model and Retriever may be nil:
// routine requests then fail at extraction and exercise logs use only the
// fixed pattern.
type Deps struct {
	Profiles  *profile.Store
	History   *history.Store
	Prompts   *prompts.Loader
	Model     Model
	Retriever retrieval.Retriever

	TopK              int
	HistoryLimit      int
	MaxSessionMinutes int
	Debug             bool

	Logger *slog.Logger
	Now    func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.TopK <= 0 {
		d.TopK = DefaultTopK
	}
	if d.HistoryLimit <= 0 {
		d.HistoryLimit = DefaultHistoryLimit
	}
	if d.MaxSessionMinutes <= 0 {
		d.MaxSessionMinutes = DefaultMaxSessionMinutes
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}
