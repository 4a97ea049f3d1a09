package workout

import (
	"bytes"

	yaml "gopkg.in/yaml.v3"
)

// RenderYAML renders a routine for display.
func RenderYAML(r Routine) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
