package jsonfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMarshal_KeepsTextAsWritten(t *testing.T) {
	b, err := Marshal(map[string]string{"objetivo": "fuerza & salud <ñ>"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := "{\n  \"objetivo\": \"fuerza & salud <ñ>\"\n}\n"
	if string(b) != want {
		t.Fatalf("Marshal = %q; want %q", b, want)
	}
}

func TestWriteAtomic_ReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "u.json")
	if err := os.WriteFile(p, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteAtomic(p, []byte("new")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "new" {
		t.Fatalf("content = %q", b)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "u.json" {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteAtomic_MissingDir(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope", "u.json")
	if err := WriteAtomic(p, []byte("x")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestWriteAtomic_Permissions(t *testing.T) {
	p := filepath.Join(t.TempDir(), "u.json")
	if err := WriteAtomic(p, []byte("{}")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	fi, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm()&0o600 != 0o600 {
		t.Fatalf("mode = %v", fi.Mode())
	}
}
