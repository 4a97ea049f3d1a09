package id

import (
	"fmt"
	"testing"

	"github.com/cespare/xxhash/v2"
)

func TestFold_Table(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Press Pallof", "press pallof"},
		{"  Préss   PÁLLOF ", "press pallof"},
		{"Muéstrame el historial", "muestrame el historial"},
		{"últimos", "ultimos"},
		{"", ""},
	}
	for _, tc := range cases {
		got := Fold(tc.in)
		if got != tc.want {
			t.Fatalf("Fold(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlug_Table(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Sentadilla Búlgara (Mancuernas)", "sentadilla-bulgara-mancuernas"},
		{"  -- user_01 ** ", "user-01"},
		{"A---B", "a-b"},
		{"@@@", ""},
		{"aaaaaaaaaa bbbbbbbbbb cccccccccc dddddddddd eeee", "aaaaaaaaaa-bbbbbbbbbb-cccccccccc-ddddddd"},
	}
	for _, tc := range cases {
		got := Slug(tc.in)
		if got != tc.want {
			t.Fatalf("Slug(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoutineID_Table(t *testing.T) {
	cases := []struct {
		name         string
		date         string
		user         string
		seed         string
		expectedUser string
	}{
		{"simple", "2025-08-09", "ana", "seed", "ana"},
		{"kebab user", "2025-01-02", "José María", "abc", "jose-maria"},
	}
	for _, tc := range cases {
		suffix := int(xxhash.Sum64([]byte(tc.seed)) % 10000)
		expected := fmt.Sprintf("rt-%s-%s-%04d", stripDashes(tc.date), tc.expectedUser, suffix)

		got1 := RoutineID(tc.date, tc.user, []byte(tc.seed))
		got2 := RoutineID(tc.date, tc.user, []byte(tc.seed))

		if got1 != expected {
			t.Fatalf("%s: RoutineID(...) = %q; want %q", tc.name, got1, expected)
		}
		if got2 != expected {
			t.Fatalf("%s: non-deterministic: second call %q; want %q", tc.name, got2, expected)
		}
	}
}

func TestChunkID_Stable(t *testing.T) {
	a := ChunkID("libro.txt", "Trabaja a RIR 2.")
	b := ChunkID("libro.txt", "Trabaja a RIR 2.")
	c := ChunkID("otro.txt", "Trabaja a RIR 2.")
	if a != b {
		t.Fatalf("same input produced %q and %q", a, b)
	}
	if a == c {
		t.Fatalf("different sources collided: %q", a)
	}
	if len(a) != 16 {
		t.Fatalf("ChunkID length = %d; want 16", len(a))
	}
}

func stripDashes(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
