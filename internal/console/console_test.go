package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aaronromeo/swolecoach/internal/pipeline"
	"github.com/aaronromeo/swolecoach/internal/profile"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

func TestTurn_SavedRoutineRendersYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf, NoColorTheme(), 20, false)
	r := workout.Routine{ID: "rt-1", Name: "Fuerza", ValidityWeeks: 4, Sessions: []workout.Session{{Weekday: "lunes", Exercises: []workout.Exercise{{Name: "Sentadilla", Sets: 4}}}}}
	p.Turn(pipeline.State{Step: pipeline.StepSaved, Response: "✅ Rutina guardada exitosamente en tu perfil.", Routine: &r})

	out := buf.String()
	for _, want := range []string{"✅ Rutina guardada", "nombre: Fuerza", "dia_semana: lunes", "- nombre: Sentadilla", strings.Repeat("─", 20)} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTurn_ErrorAndVerbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf, NoColorTheme(), 0, true)
	p.Turn(pipeline.State{TurnID: "t1", Step: pipeline.StepError, Kind: pipeline.KindUserNotFound, Error: "user not found: x", Response: "❌ Lo siento"})

	out := buf.String()
	if !strings.Contains(out, "turn=t1") || !strings.Contains(out, "error[user_not_found]: user not found: x") || !strings.Contains(out, "❌ Lo siento") {
		t.Fatalf("output:\n%s", out)
	}
	if strings.Contains(out, "nombre:") {
		t.Fatalf("error turn rendered a routine:\n%s", out)
	}
}

func TestUserContext(t *testing.T) {
	var buf bytes.Buffer
	p := NewWithWriter(&buf, NoColorTheme(), 10, false)
	p.UserContext(profile.Profile{UserID: "u1", Level: "intermedio"})
	out := buf.String()
	for _, want := range []string{"👤 Usuario: u1", "🎯 Objetivo: N/A", "📊 Nivel: intermedio", "=========="} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}
