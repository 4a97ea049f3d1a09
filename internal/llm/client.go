package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/aaronromeo/swolecoach/internal/history"
	"github.com/aaronromeo/swolecoach/internal/llm/provider"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

const (
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
)

// AttemptsError is returned when no attempt produced a valid reply.
type AttemptsError struct {
	Attempts int
	Last     error
	// Timeout is set when the loop stopped early on a deadline or cancellation.
	Timeout bool
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("could not produce valid structured output after %d attempts: %v", e.Attempts, e.Last)
}

func (e *AttemptsError) Unwrap() error { return e.Last }

// Malformed reports whether the last failure was a schema/parse failure
// rather than a transport one.
func (e *AttemptsError) Malformed() bool {
	return !e.Timeout && errors.Is(e.Last, ErrMalformed)
}

// IsTimeout reports deadline, cancellation and network timeouts.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Result carries a decoded reply and how it was obtained.
type Result[T any] struct {
	Value    T
	Raw      string
	Attempts int
	Model    string
	Latency  time.Duration
}

type Client struct {
	provider      provider.Provider
	retries       int
	retryDelay    time.Duration
	extractModel  string
	assembleModel string
	logger        *slog.Logger
	debug         bool
	sleep         func(context.Context, time.Duration) error
}

type LLMClientOption func(*Client)

func WithProvider(p provider.Provider) LLMClientOption {
	return func(c *Client) {
		c.provider = p
	}
}

func WithRetries(n int) LLMClientOption {
	return func(c *Client) {
		c.retries = n
	}
}

func WithRetryDelay(d time.Duration) LLMClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithModels sets per-task models; empty values use the provider default.
func WithModels(extract, assemble string) LLMClientOption {
	return func(c *Client) {
		c.extractModel = extract
		c.assembleModel = assemble
	}
}

func WithLogger(l *slog.Logger) LLMClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

func WithDebug() LLMClientOption {
	return func(c *Client) {
		c.debug = true
	}
}

func New(opts ...LLMClientOption) (*Client, error) {
	c := &Client{
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		logger:     slog.Default(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.provider == nil {
		return nil, errors.New("llm provider not configured")
	}
	if err := c.provider.Validate(); err != nil {
		return nil, err
	}
	if c.retries < 1 {
		c.retries = 1
	}
	return c, nil
}

// ExtractPrinciples asks the model for training principles. Empty citations
// are returned as-is; rejecting them is the caller's decision.
func (c *Client) ExtractPrinciples(ctx context.Context, userPrompt string) (Result[workout.Principles], error) {
	return complete[workout.Principles](ctx, c, provider.ProviderResponseFormat{
		Name:         provider.ResponseFormatPrinciples,
		Description:  provider.ResponseFormatPrinciplesDescription,
		Schema:       PrinciplesSchema,
		SystemPrompt: PrinciplesSystem,
		UserPrompt:   userPrompt,
		Model:        c.extractModel,
	})
}

// GenerateRoutine asks the model for a routine draft.
func (c *Client) GenerateRoutine(ctx context.Context, userPrompt string) (Result[workout.RoutineDraft], error) {
	return complete[workout.RoutineDraft](ctx, c, provider.ProviderResponseFormat{
		Name:         provider.ResponseFormatRoutine,
		Description:  provider.ResponseFormatRoutineDescription,
		Schema:       RoutineDraftSchema,
		SystemPrompt: RoutineSystem,
		UserPrompt:   userPrompt,
		Model:        c.assembleModel,
	})
}

// ParseExerciseLog extracts one exercise from free text.
func (c *Client) ParseExerciseLog(ctx context.Context, text string) (history.Log, error) {
	res, err := complete[history.Log](ctx, c, provider.ProviderResponseFormat{
		Name:         provider.ResponseFormatExerciseLog,
		Description:  provider.ResponseFormatExerciseLogDescription,
		Schema:       ExerciseLogSchema,
		SystemPrompt: ExerciseLogSystem,
		UserPrompt:   text,
		Model:        c.extractModel,
	})
	if err != nil {
		return history.Log{}, err
	}
	if !res.Value.Valid() {
		return history.Log{}, history.ErrUnparseable
	}
	return res.Value, nil
}

// complete runs up to c.retries attempts. Attempts after the first carry the
// previous failure in a repair prompt and wait c.retryDelay first. A timeout
// or cancellation ends the loop immediately.
func complete[T any](ctx context.Context, c *Client, req provider.ProviderResponseFormat) (Result[T], error) {
	res := Result[T]{Model: req.Model}
	if res.Model == "" {
		res.Model = c.provider.Model()
	}
	start := time.Now()
	original := req.UserPrompt

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		res.Attempts = attempt
		if attempt > 1 {
			if err := c.sleep(ctx, c.retryDelay); err != nil {
				return res, &AttemptsError{Attempts: attempt - 1, Last: lastErr, Timeout: true}
			}
			req.UserPrompt = fmt.Sprintf(Repair, lastErr.Error(), req.Schema, original)
		}

		out, err := c.provider.Complete(ctx, req)
		if err != nil {
			if IsTimeout(err) || ctx.Err() != nil {
				c.logger.Warn("llm attempt timed out", "format", req.Name, "attempt", attempt, "err", err)
				return res, &AttemptsError{Attempts: attempt, Last: err, Timeout: true}
			}
			c.logger.Warn("llm attempt failed", "format", req.Name, "attempt", attempt, "err", err)
			lastErr = err
			continue
		}
		if c.debug {
			c.logger.Debug("llm reply", "format", req.Name, "attempt", attempt, "reply", out)
		}

		v, err := decode[T](req.Schema, out)
		if err != nil {
			c.logger.Warn("llm reply rejected", "format", req.Name, "attempt", attempt, "err", err)
			res.Raw = out
			lastErr = err
			continue
		}
		res.Value = v
		res.Raw = out
		res.Latency = time.Since(start)
		return res, nil
	}
	res.Latency = time.Since(start)
	return res, &AttemptsError{Attempts: c.retries, Last: lastErr}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
