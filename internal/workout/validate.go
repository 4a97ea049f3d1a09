package workout

import (
	"fmt"
	"strings"

	"github.com/aaronromeo/swolecoach/internal/id"
)

// ViolationKind classifies a semantic validation failure.
type ViolationKind string

const (
	ViolationStructure    ViolationKind = "structure"
	ViolationPrinciples   ViolationKind = "principles"
	ViolationRIR          ViolationKind = "rir"
	ViolationTempo        ViolationKind = "tempo"
	ViolationCompensatory ViolationKind = "compensatory"
	ViolationDuration     ViolationKind = "duration"
)

// ValidationError lists every violation found; Kind is the first one.
type ValidationError struct {
	Kind     ViolationKind
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(k ViolationKind, format string, args ...any) {
	if len(e.Problems) == 0 {
		e.Kind = k
	}
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// ValidateRoutine checks a routine against the principles it was generated
// from and the user's maximum session duration. Sessions reporting zero
// minutes are estimated with EstimateSessionMinutes.
func ValidateRoutine(r Routine, p Principles, maxMinutes int) error {
	ve := &ValidationError{}

	if strings.TrimSpace(p.RIR) == "" {
		ve.add(ViolationPrinciples, "principles have no RIR")
	}
	if strings.TrimSpace(p.Tempo) == "" {
		ve.add(ViolationPrinciples, "principles have no tempo")
	}
	if len(ve.Problems) > 0 {
		return ve
	}

	if len(r.Sessions) == 0 {
		ve.add(ViolationStructure, "routine has no sessions")
		return ve
	}

	present := map[string]bool{}
	for i, s := range r.Sessions {
		if len(s.Exercises) == 0 {
			ve.add(ViolationStructure, "session %d (%s) has no exercises", i+1, s.Weekday)
			continue
		}
		for _, ex := range s.Exercises {
			present[id.Fold(ex.Name)] = true
			if ex.Category != CategoryPrincipal {
				continue
			}
			if ex.RIR != p.RIR {
				ve.add(ViolationRIR, "exercise %q has RIR=%s but principles say RIR=%s", ex.Name, ex.RIR, p.RIR)
			}
			if ex.Tempo != p.Tempo {
				ve.add(ViolationTempo, "exercise %q has tempo=%s but principles say tempo=%s", ex.Name, ex.Tempo, p.Tempo)
			}
		}
	}

	for _, c := range p.Compensatory {
		if !present[id.Fold(c.Name)] {
			ve.add(ViolationCompensatory, "compensatory exercise %q is missing from the routine", c.Name)
		}
	}

	if maxMinutes > 0 {
		for i, s := range r.Sessions {
			m := s.EstimatedMinutes
			if m <= 0 {
				m = EstimateSessionMinutes(s)
			}
			if m > maxMinutes {
				ve.add(ViolationDuration, "session %d (%s) lasts %d min, above the %d min limit", i+1, s.Weekday, m, maxMinutes)
			}
		}
	}

	if len(ve.Problems) > 0 {
		return ve
	}
	return nil
}
