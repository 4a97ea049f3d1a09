package provider

import (
	"context"
)

const (
	ResponseFormatPrinciples             = "training_principles"
	ResponseFormatPrinciplesDescription  = "Training variables extracted from the reference book, with page citations"
	ResponseFormatRoutine                = "routine_draft"
	ResponseFormatRoutineDescription     = "Weekly workout routine built from the extracted principles"
	ResponseFormatExerciseLog            = "exercise_log"
	ResponseFormatExerciseLogDescription = "One logged exercise: name, sets, reps and weight in kg"
)

// Provider defines the minimal interface for LLM completion.
type Provider interface {
	Complete(ctx context.Context, req ProviderResponseFormat) (string, error)
	Validate() error
	// Model is the default model identifier used when a request names none.
	Model() string
}

// ProviderResponseFormat is one schema-constrained completion request.
type ProviderResponseFormat struct {
	Name         string
	Description  string
	Schema       string
	SystemPrompt string
	UserPrompt   string
	// Model overrides the provider default for this call.
	Model string
}

func (r ProviderResponseFormat) modelOr(def string) string {
	if r.Model != "" {
		return r.Model
	}
	return def
}
