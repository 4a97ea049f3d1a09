package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/aaronromeo/swolecoach/internal/history"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

// ErrMalformed marks replies that are not JSON or do not match the schema.
var ErrMalformed = errors.New("malformed structured output")

var (
	PrinciplesSchema   = reflectSchema(&workout.Principles{})
	RoutineDraftSchema = reflectSchema(&workout.RoutineDraft{})
	ExerciseLogSchema  = reflectSchema(&history.Log{})
)

func reflectSchema(v any) string {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := r.Reflect(v)
	s.Version = ""
	s.ID = ""
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("reflect schema %T: %v", v, err))
	}
	return string(b)
}

// validateJSON checks b against schema.
func validateJSON(schema string, b []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !result.Valid() {
		return fmt.Errorf("%w: %s", ErrMalformed, collect(result.Errors()))
	}
	return nil
}

// decode strips a Markdown code fence if present, validates and unmarshals.
func decode[T any](schema, out string) (T, error) {
	var v T
	b := []byte(stripFence(out))
	if err := validateJSON(schema, b); err != nil {
		return v, err
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func collect(errs []gojsonschema.ResultError) string {
	var buf bytes.Buffer
	for _, e := range errs {
		buf.WriteString(e.String())
		buf.WriteByte(';')
	}
	return buf.String()
}
