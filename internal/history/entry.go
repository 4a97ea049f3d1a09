package history

import (
	"fmt"
	"strconv"

	"github.com/atombender/go-jsonschema/pkg/types"
)

// Entry is one logged exercise in a user's history file.
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Date      types.SerializableDate `json:"fecha"`
	UserID    string                 `json:"user_id"`
	Exercise  string                 `json:"ejercicio"`
	Sets      int                    `json:"series"`
	Reps      int                    `json:"repeticiones"`
	WeightKg  float64                `json:"peso_kg"`
}

// Log is a parsed exercise before it is stamped and stored. Field names match
// the structured output the model is asked for.
type Log struct {
	Exercise string  `json:"ejercicio" jsonschema:"description=Nombre del ejercicio (ej: 'sentadilla')"`
	Sets     int     `json:"series" jsonschema:"minimum=1,description=Número de series (1 si no se indica)"`
	Reps     int     `json:"repeticiones" jsonschema:"minimum=1,description=Repeticiones por serie"`
	WeightKg float64 `json:"peso_kg" jsonschema:"minimum=0,description=Peso en kg (0 si no se indica)"`
}

func (l Log) Valid() bool {
	return l.Exercise != "" && l.Sets > 0 && l.Reps > 0 && l.WeightKg >= 0
}

// Kg renders a weight the way responses show it: 100 -> "100.0", 62.5 -> "62.5".
func Kg(w float64) string {
	if w == float64(int64(w)) {
		return strconv.FormatFloat(w, 'f', 1, 64)
	}
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// Summary is the "<ex> - SxR @ Wkg" line used in confirmations.
func (e Entry) Summary() string {
	return fmt.Sprintf("%s - %dx%d @ %skg", e.Exercise, e.Sets, e.Reps, Kg(e.WeightKg))
}
