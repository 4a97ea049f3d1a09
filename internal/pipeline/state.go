// Package pipeline runs one user turn through the coaching graph: load the
// profile, extract cited principles, generate and validate a routine, persist
// it, and translate any failure into a user-facing message.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/aaronromeo/swolecoach/internal/profile"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

// RequestType is the intent of a turn.
type RequestType string

const (
	RequestCreateRoutine RequestType = "crear_rutina"
	RequestLogExercise   RequestType = "registrar_ejercicio"
	RequestQueryHistory  RequestType = "consultar_historial"
	RequestUnknown       RequestType = "desconocido"
)

func (r RequestType) Valid() bool {
	switch r {
	case RequestCreateRoutine, RequestLogExercise, RequestQueryHistory:
		return true
	}
	return false
}

// Request is one user turn. It is not modified once built.
type Request struct {
	TurnID      string      `json:"turn_id"`
	UserID      string      `json:"user_id"`
	RequestType RequestType `json:"request_type"`
	Message     string      `json:"user_message"`
}

// ErrorKind tags a failure at the node that produced it so the handler never
// has to guess from the message text.
type ErrorKind string

const (
	KindNone                   ErrorKind = ""
	KindUnknownRequest         ErrorKind = "unknown_request"
	KindUserNotFound           ErrorKind = "user_not_found"
	KindCorruptProfile         ErrorKind = "corrupt_profile"
	KindIncompleteProfile      ErrorKind = "incomplete_profile"
	KindProfileUnavailable     ErrorKind = "profile_unavailable"
	KindExtraction             ErrorKind = "extraction"
	KindNoPassages             ErrorKind = "no_passages"
	KindHallucination          ErrorKind = "hallucination"
	KindPromptMissing          ErrorKind = "prompt_missing"
	KindPrinciplesUnavailable  ErrorKind = "principles_unavailable"
	KindMalformedOutput        ErrorKind = "malformed_output"
	KindGeneration             ErrorKind = "generation"
	KindValidation             ErrorKind = "validation"
	KindValidationRIR          ErrorKind = "validation_rir"
	KindValidationTempo        ErrorKind = "validation_tempo"
	KindValidationCompensatory ErrorKind = "validation_compensatory"
	KindValidationDuration     ErrorKind = "validation_duration"
	KindEmptyRoutine           ErrorKind = "empty_routine"
	KindPersistence            ErrorKind = "persistence"
	KindVerification           ErrorKind = "verification"
	KindUnparseableLog         ErrorKind = "unparseable_log"
	KindHistory                ErrorKind = "history"
	KindInternal               ErrorKind = "internal"
	KindUnknown                ErrorKind = "unknown"
)

// Step markers.
const (
	StepContextLoaded       = "context_loaded"
	StepPrinciplesExtracted = "principles_extracted"
	StepRoutineGenerated    = "routine_generated"
	StepSaved               = "saved"
	StepExerciseLogged      = "exercise_logged"
	StepHistoryQueried      = "history_queried"
	StepError               = "error"
)

// GenerationMeta describes how the accepted routine was produced.
type GenerationMeta struct {
	Model     string `json:"model"`
	Attempts  int    `json:"attempts"`
	LatencyMS int64  `json:"latency_ms"`
}

// Debug keeps what a failed or successful turn left behind for inspection.
type Debug struct {
	PrinciplesWithoutCitations string           `json:"principles_without_citations,omitempty"`
	InvalidRoutine             *workout.Routine `json:"invalid_routine,omitempty"`
	Generation                 *GenerationMeta  `json:"generation,omitempty"`
	RetrievedPassages          int              `json:"retrieved_passages,omitempty"`
	BackupPath                 string           `json:"backup_path,omitempty"`
}

// State is threaded through the graph. Nodes receive a copy and return the
// updated value; slots are replaced, never modified in place.
type State struct {
	TurnID      string
	UserID      string
	RequestType RequestType
	Message     string
	StartedAt   time.Time

	Profile    *profile.Profile
	Principles *workout.Principles
	Routine    *workout.Routine
	Response   string

	Step       string
	Error      string
	Kind       ErrorKind
	FailedStep string

	Debug Debug
}

func newState(req Request, now time.Time) State {
	return State{
		TurnID:      req.TurnID,
		UserID:      req.UserID,
		RequestType: req.RequestType,
		Message:     req.Message,
		StartedAt:   now,
	}
}

// Failed reports whether a node has recorded an error.
func (s State) Failed() bool { return s.Error != "" }

// Fail records an error raised by node.
func (s State) Fail(kind ErrorKind, node, msg string) State {
	if kind == KindNone {
		kind = KindUnknown
	}
	s.Kind = kind
	s.Error = msg
	s.Step = node + "_error"
	s.FailedStep = s.Step
	return s
}

// Validate checks that a finished state is self-consistent.
func (s State) Validate() error {
	var errs []error
	if s.Error != "" && s.Step != StepError {
		errs = append(errs, fmt.Errorf("error %q set but step is %q", s.Error, s.Step))
	}
	if s.Response == "" {
		errs = append(errs, errors.New("flow ended without a response"))
	}
	if s.Step == StepSaved && s.Routine == nil {
		errs = append(errs, errors.New("step saved without a routine"))
	}
	return errors.Join(errs...)
}
