package prompts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadAndRender(t *testing.T) {
	dir := t.TempDir()
	body := "Perfil:\n{perfil_usuario}\nLibro:\n{contexto_libro}\nJSON literal: {\"a\": 1} y {desconocido}\n"
	if err := os.WriteFile(filepath.Join(dir, PrincipleExtractor), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	tpl, err := NewLoader(dir).Load(PrincipleExtractor)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := tpl.Render(map[string]string{"perfil_usuario": "level: avanzado", "contexto_libro": "[p. 45] RIR 1-2"})
	want := "Perfil:\nlevel: avanzado\nLibro:\n[p. 45] RIR 1-2\nJSON literal: {\"a\": 1} y {desconocido}\n"
	if got != want {
		t.Fatalf("Render mismatch:\n%s", cmp.Diff(want, got))
	}
	if diff := cmp.Diff([]string{"perfil_usuario", "contexto_libro", "desconocido"}, tpl.Placeholders()); diff != "" {
		t.Fatalf("Placeholders (-want +got):\n%s", diff)
	}
}

func TestLoad_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := NewLoader(dir).Load(RoutineAssembler)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "prompt template not found: ") || !strings.HasSuffix(err.Error(), RoutineAssembler) {
		t.Fatalf("message = %q", err)
	}
}

func TestShippedTemplates(t *testing.T) {
	l := NewLoader(filepath.Join("..", "..", "prompts"))
	cases := map[string][]string{
		PrincipleExtractor: {"perfil_usuario", "contexto_libro"},
		RoutineAssembler:   {"principios", "perfil", "preferencias", "duracion_max_min"},
	}
	for name, required := range cases {
		tpl, err := l.Load(name)
		if err != nil {
			t.Fatalf("Load(%s): %v", name, err)
		}
		have := map[string]bool{}
		for _, p := range tpl.Placeholders() {
			have[p] = true
		}
		for _, r := range required {
			if !have[r] {
				t.Fatalf("%s lacks placeholder {%s}", name, r)
			}
		}
	}
}

func TestLoad_UnclosedPlaceholder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, RoutineAssembler), []byte("Perfil: {perfil\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewLoader(dir).Load(RoutineAssembler)
	if err == nil || errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), "parse prompt") {
		t.Fatalf("err = %v", err)
	}
}

func TestRender_LeavesNonIdentifierTags(t *testing.T) {
	dir := t.TempDir()
	body := `{"nombre": "{rir}"} {x y} {rir}`
	if err := os.WriteFile(filepath.Join(dir, RoutineAssembler), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	tpl, err := NewLoader(dir).Load(RoutineAssembler)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := tpl.Render(map[string]string{"rir": "1-2", "x y": "no"})
	want := `{"nombre": "{rir}"} {x y} 1-2`
	if got != want {
		t.Fatalf("Render mismatch:\n%s", cmp.Diff(want, got))
	}
	if diff := cmp.Diff([]string{"rir"}, tpl.Placeholders()); diff != "" {
		t.Fatalf("Placeholders (-want +got):\n%s", diff)
	}
}
