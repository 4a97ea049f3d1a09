package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse_Table(t *testing.T) {
	cases := []struct {
		in   string
		want Log
	}{
		{"anota 5x5 de sentadilla con 100kg", Log{"sentadilla", 5, 5, 100}},
		{"hice 3x12 de curl de bíceps con 20", Log{"curl de bíceps", 3, 12, 20}},
		{"registra: 4×8 press banca a 62,5 kilos", Log{"press banca", 4, 8, 62.5}},
		{"5x5 peso muerto", Log{"peso muerto", 5, 5, 0}},
		{"press banca 4x8 80kg", Log{"press banca", 4, 8, 80}},
		{"apunta remo con barra 3x10 con 50", Log{"remo con barra", 3, 10, 50}},
		{"registra 50 lagartijas", Log{"lagartijas", 1, 50, 0}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("Parse(%q) (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestParse_Unparseable(t *testing.T) {
	for _, in := range []string{"", "hola", "anota 5x5", "hice sentadilla", "press banca 4x8 muy pesado"} {
		if _, err := Parse(in); !errors.Is(err, ErrUnparseable) {
			t.Fatalf("Parse(%q) err = %v; want ErrUnparseable", in, err)
		}
	}
}

func TestStore_AppendAndLast(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")
	now := time.Date(2025, 5, 6, 18, 0, 0, 0, time.UTC)
	s := NewStore(dir, WithClock(func() time.Time { return now }))

	l, err := Parse("anota 5x5 de sentadilla con 100kg")
	if err != nil {
		t.Fatal(err)
	}
	e, err := s.Append("ana", l)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e.Summary() != "sentadilla - 5x5 @ 100.0kg" {
		t.Fatalf("Summary = %q", e.Summary())
	}

	raw, err := os.ReadFile(filepath.Join(dir, "ana.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"fecha": "2025-05-06"`, `"ejercicio": "sentadilla"`, `"peso_kg": 100`, `"user_id": "ana"`} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("history file missing %s:\n%s", want, raw)
		}
	}

	for i := 0; i < 9; i++ {
		if _, err := s.Append("ana", Log{Exercise: "remo", Sets: 3, Reps: 10 + i, WeightKg: 40}); err != nil {
			t.Fatal(err)
		}
	}
	last, err := s.Last("ana", 7)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(last) != 7 || last[6].Reps != 18 || last[0].Reps != 12 {
		t.Fatalf("unexpected window: %+v", last)
	}
	all, err := s.All("ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 10 {
		t.Fatalf("len(all) = %d", len(all))
	}
}

func TestStore_EmptyAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := os.WriteFile(filepath.Join(dir, "blank.json"), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("[{"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, u := range []string{"blank", "nobody"} {
		got, err := s.Last(u, 7)
		if err != nil || len(got) != 0 {
			t.Fatalf("%s: got %v, %v", u, got, err)
		}
	}
	if _, err := s.Last("bad", 7); err == nil {
		t.Fatalf("expected error for corrupt history")
	}
	if _, err := s.Append("bad", Log{"x", 1, 1, 0}); err == nil {
		t.Fatalf("append must not overwrite a corrupt history")
	}
	if _, err := s.Last("../x", 7); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestFormatRecent(t *testing.T) {
	if got := FormatRecent(nil); got != "📭 No hay entrenamientos registrados aún." {
		t.Fatalf("empty = %q", got)
	}
	entries := []Entry{
		{Timestamp: "2025-05-06T18:00:00Z", Exercise: "sentadilla", Sets: 5, Reps: 5, WeightKg: 100},
		{Timestamp: "2025-05-07T18:00:00Z", Exercise: "press", Sets: 3, Reps: 8, WeightKg: 62.5},
	}
	want := "📋 Últimos 2 entrenamientos:\n\n" +
		"1. sentadilla\n   └─ 5x5 @ 100.0kg\n   📅 2025-05-06\n" +
		"2. press\n   └─ 3x8 @ 62.5kg\n   📅 2025-05-07\n"
	if got := FormatRecent(entries); got != want {
		t.Fatalf("FormatRecent mismatch:\n%s", cmp.Diff(want, got))
	}
	stats := FormatStats(entries)
	if !strings.Contains(stats, "Entrenamientos totales: 2") || !strings.Contains(stats, "Peso máximo: 100.0kg") {
		t.Fatalf("FormatStats = %q", stats)
	}
}

func TestParseHistoryMarkdown(t *testing.T) {
	md := strings.Join([]string{
		"# Log",
		"- 2025-03-01: sentadilla 5x5 100kg",
		"| 2025-03-02 | 3x10 de remo con 40kg |",
		"- 2025-03-03: descanso",
		"texto suelto",
	}, "\n")
	got, skipped := ParseHistoryMarkdown([]byte(md))
	if skipped != 1 {
		t.Fatalf("skipped = %d", skipped)
	}
	want := []Dated{
		{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Log: Log{"sentadilla", 5, 5, 100}},
		{Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), Log: Log{"remo", 3, 10, 40}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	s := NewStore(t.TempDir())
	n, err := s.Import("ana", got)
	if err != nil || n != 2 {
		t.Fatalf("Import = %d, %v", n, err)
	}
	all, _ := s.All("ana")
	if all[0].Date.Format("2006-01-02") != "2025-03-01" {
		t.Fatalf("imported date = %v", all[0].Date)
	}
}

func TestFetchURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("- 2025-03-01: sentadilla 5x5 100kg\n"))
	}))
	defer ts.Close()

	b, err := ReadSource(context.Background(), ts.URL, 0)
	if err != nil {
		t.Fatalf("ReadSource: %v", err)
	}
	if !strings.Contains(string(b), "sentadilla") {
		t.Fatalf("body = %q", b)
	}
}
