// Package jsonfile holds the on-disk JSON conventions shared by the profile
// and history stores.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
)

// Marshal encodes v with 2-space indentation, keeping non-ASCII text and
// HTML characters as written.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteAtomic replaces path with data through a temp file and rename, so
// readers see either the old or the new content.
func WriteAtomic(path string, data []byte) error {
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}
