package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aaronromeo/swolecoach/internal/id"
	"github.com/aaronromeo/swolecoach/internal/llm"
	"github.com/aaronromeo/swolecoach/internal/profile"
	"github.com/aaronromeo/swolecoach/internal/prompts"
	"github.com/aaronromeo/swolecoach/internal/retrieval"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

const savedResponse = "✅ Rutina guardada exitosamente en tu perfil."

type nodes struct {
	d Deps
}

func (n *nodes) loadContext(_ context.Context, st State) State {
	if !st.RequestType.Valid() {
		return st.Fail(KindUnknownRequest, NodeLoadContext, fmt.Sprintf("unrecognized request type: %s", st.RequestType))
	}
	p, err := n.d.Profiles.Load(st.UserID)
	if err != nil {
		var inc *profile.IncompleteError
		switch {
		case errors.As(err, &inc):
			return st.Fail(KindIncompleteProfile, NodeLoadContext, err.Error())
		case errors.Is(err, profile.ErrNotFound):
			return st.Fail(KindUserNotFound, NodeLoadContext, err.Error())
		case errors.Is(err, profile.ErrCorrupt):
			return st.Fail(KindCorruptProfile, NodeLoadContext, err.Error())
		}
		return st.Fail(KindUnknown, NodeLoadContext, err.Error())
	}
	st.Profile = &p
	st.Step = StepContextLoaded
	return st
}

func (n *nodes) extractPrinciples(ctx context.Context, st State) State {
	if st.Profile == nil {
		return st.Fail(KindProfileUnavailable, NodeExtractPrinciples, "profile unavailable")
	}
	if n.d.Retriever == nil || n.d.Model == nil {
		return st.Fail(KindExtraction, NodeExtractPrinciples, "extraction/API error: retrieval or model not configured")
	}

	passages, err := n.d.Retriever.Retrieve(ctx, RetrievalQuery(*st.Profile), n.d.TopK)
	if err != nil {
		return st.Fail(KindExtraction, NodeExtractPrinciples, "extraction/API error: "+err.Error())
	}
	if len(passages) == 0 {
		return st.Fail(KindNoPassages, NodeExtractPrinciples, "extraction/API error: retrieval returned no passages")
	}
	st.Debug.RetrievedPassages = len(passages)

	tmpl, err := n.d.Prompts.Load(prompts.PrincipleExtractor)
	if err != nil {
		return failTemplate(st, NodeExtractPrinciples, err)
	}
	prompt := n.render(st.TurnID, tmpl, map[string]string{
		"perfil_usuario": toYAML(st.Profile),
		"contexto_libro": formatPassages(passages),
	})

	res, err := n.d.Model.ExtractPrinciples(ctx, prompt)
	if err != nil {
		return st.Fail(KindExtraction, NodeExtractPrinciples, "extraction/API error: "+err.Error())
	}
	if n.d.Debug {
		n.d.Logger.Debug("principles extracted", "turn_id", st.TurnID, "raw", res.Raw, "attempts", res.Attempts)
	}
	if !hasCitations(res.Value.Citations) {
		st.Debug.PrinciplesWithoutCitations = res.Raw
		return st.Fail(KindHallucination, NodeExtractPrinciples, "hallucination detected: principles extracted without source citations")
	}

	p := res.Value
	st.Principles = &p
	st.Step = StepPrinciplesExtracted
	return st
}

func (n *nodes) generateRoutine(ctx context.Context, st State) State {
	if st.Principles == nil {
		return st.Fail(KindPrinciplesUnavailable, NodeGenerateRoutine, "principles unavailable")
	}
	if st.Profile == nil {
		return st.Fail(KindProfileUnavailable, NodeGenerateRoutine, "profile unavailable")
	}
	if n.d.Model == nil {
		return st.Fail(KindGeneration, NodeGenerateRoutine, "model not configured")
	}
	p := *st.Principles
	maxMinutes := st.Profile.MaxSessionMinutes(n.d.MaxSessionMinutes)

	tmpl, err := n.d.Prompts.Load(prompts.RoutineAssembler)
	if err != nil {
		return failTemplate(st, NodeGenerateRoutine, err)
	}
	prompt := n.render(st.TurnID, tmpl, map[string]string{
		"principios":         toYAML(p),
		"perfil":             toYAML(st.Profile),
		"preferencias":       preferences(st.Profile.Logistics),
		"duracion_max_min":   strconv.Itoa(maxMinutes),
		"presupuesto_series": strconv.Itoa(workout.EstimateSets(maxMinutes, workout.SetSeconds(p.RepRange, p.Tempo, p.RestSeconds))),
		"rir":                p.RIR,
		"tempo":              p.Tempo,
	})

	res, err := n.d.Model.GenerateRoutine(ctx, prompt)
	if err != nil {
		var ae *llm.AttemptsError
		if errors.As(err, &ae) && ae.Malformed() {
			return st.Fail(KindMalformedOutput, NodeGenerateRoutine, err.Error())
		}
		return st.Fail(KindGeneration, NodeGenerateRoutine, err.Error())
	}

	created := n.d.Now()
	routine := res.Value.Wrap(id.RoutineID(created.Format(time.DateOnly), st.UserID, []byte(res.Raw)), p, created)
	if err := workout.ValidateRoutine(routine, p, maxMinutes); err != nil {
		st.Debug.InvalidRoutine = &routine
		return st.Fail(validationKind(err), NodeGenerateRoutine, "validation failed: "+err.Error())
	}

	st.Routine = &routine
	st.Debug.Generation = &GenerationMeta{Model: res.Model, Attempts: res.Attempts, LatencyMS: res.Latency.Milliseconds()}
	if n.d.Debug {
		n.d.Logger.Debug("routine generated", "turn_id", st.TurnID, "routine_id", routine.ID, "model", res.Model, "attempts", res.Attempts, "latency_ms", res.Latency.Milliseconds())
	}
	st.Step = StepRoutineGenerated
	return st
}

func (n *nodes) saveRoutine(_ context.Context, st State) State {
	if st.Routine == nil {
		return st.Fail(KindEmptyRoutine, NodeSaveRoutine, "empty routine, nothing to save")
	}
	backup, err := n.d.Profiles.SaveRoutine(st.UserID, *st.Routine)
	st.Debug.BackupPath = backup
	if err != nil {
		switch {
		case errors.Is(err, profile.ErrVerification):
			return st.Fail(KindVerification, NodeSaveRoutine, err.Error())
		case errors.Is(err, profile.ErrNotFound):
			return st.Fail(KindUserNotFound, NodeSaveRoutine, err.Error())
		case errors.Is(err, fs.ErrPermission):
			return st.Fail(kindPermission, NodeSaveRoutine, err.Error())
		case errors.Is(err, syscall.ENOSPC):
			return st.Fail(kindDiskFull, NodeSaveRoutine, err.Error())
		}
		return st.Fail(KindPersistence, NodeSaveRoutine, err.Error())
	}
	st.Response = savedResponse
	st.Step = StepSaved
	return st
}

// render fills tmpl and warns about placeholders nothing supplies; they stay
// verbatim in the prompt.
func (n *nodes) render(turnID string, tmpl prompts.Template, vars map[string]string) string {
	for _, p := range tmpl.Placeholders() {
		if _, ok := vars[p]; !ok {
			n.d.Logger.Warn("prompt placeholder left unfilled", "turn_id", turnID, "placeholder", p)
		}
	}
	return tmpl.Render(vars)
}

func failTemplate(st State, node string, err error) State {
	if errors.Is(err, prompts.ErrNotFound) {
		return st.Fail(KindPromptMissing, node, err.Error())
	}
	return st.Fail(KindExtraction, node, "extraction/API error: "+err.Error())
}

func validationKind(err error) ErrorKind {
	var ve *workout.ValidationError
	if !errors.As(err, &ve) {
		return KindValidation
	}
	switch ve.Kind {
	case workout.ViolationRIR:
		return KindValidationRIR
	case workout.ViolationTempo:
		return KindValidationTempo
	case workout.ViolationCompensatory:
		return KindValidationCompensatory
	case workout.ViolationDuration:
		return KindValidationDuration
	}
	return KindValidation
}

func hasCitations(c []string) bool {
	for _, s := range c {
		if strings.TrimSpace(s) != "" {
			return true
		}
	}
	return false
}

// RetrievalQuery describes what the book should be searched for.
func RetrievalQuery(p profile.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "principios de entrenamiento para nivel %s con objetivo %s", p.Level, p.Objective)
	if len(p.Restrictions) > 0 {
		fmt.Fprintf(&b, "; restricciones: %s; ejercicios compensatorios", strings.Join(p.Restrictions, ", "))
	}
	if p.Frequency != "" {
		fmt.Fprintf(&b, "; frecuencia semanal %s", p.Frequency)
	}
	b.WriteString("; RIR, rango de repeticiones, descanso entre series, tempo")
	return b.String()
}

func formatPassages(ps []retrieval.Passage) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("[%s]\n%s", p.Label, strings.TrimSpace(p.Text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func preferences(l profile.Logistics) string {
	if len(l.Equipment) == 0 && len(l.PreferredDays) == 0 && l.SessionMinutes == 0 {
		return "sin preferencias registradas"
	}
	return toYAML(l)
}

func toYAML(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return strings.TrimRight(string(b), "\n")
}
