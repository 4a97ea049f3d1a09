package pipeline

import (
	"regexp"
	"strings"

	"github.com/aaronromeo/swolecoach/internal/id"
)

var (
	queryKeywords    = []string{"historial", "que ejercicios", "muestrame", "ultimos"}
	registerKeywords = []string{"registra", "anota", "apunta", "hice"}
	createKeywords   = []string{"rutina", "plan", "programa", "entrenamiento"}

	setsByRepsRx = regexp.MustCompile(`\b\d+\s*x\s*\d+\b`)
)

// Classify maps free text to a request type by keyword, checking history
// queries first, then exercise logs, then routine requests.
func Classify(text string) RequestType {
	t := id.Fold(text)
	switch {
	case containsAny(t, queryKeywords):
		return RequestQueryHistory
	case containsAny(t, registerKeywords) || setsByRepsRx.MatchString(t):
		return RequestLogExercise
	case containsAny(t, createKeywords):
		return RequestCreateRoutine
	}
	return RequestUnknown
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
