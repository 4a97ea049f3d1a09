package history

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnparseable means the text does not describe sets, reps and an exercise.
var ErrUnparseable = errors.New("could not understand the exercise, please rephrase")

const verbs = `(?:registra(?:r)?|anota(?:r)?|apunta(?:r)?|he\s+hecho|hice|acabo\s+de\s+hacer)`

var (
	// "anota 5x5 de sentadilla con 100kg"
	setsFirstRx = regexp.MustCompile(`(?i)^\s*(?:` + verbs + `\s*:?\s*)?(\d+)\s*[x×]\s*(\d+)\s+(?:de\s+)?(.+?)\s*$`)
	// "press banca 4x8 80kg"
	nameFirstRx = regexp.MustCompile(`(?i)^\s*(?:` + verbs + `\s*:?\s*)?(.+?)\s+(\d+)\s*[x×]\s*(\d+)(.*)$`)
	// "registra 50 lagartijas"
	repsOnlyRx = regexp.MustCompile(`(?i)^\s*` + verbs + `\s*:?\s*(\d+)\s+(?:de\s+)?([^\d].*?)\s*$`)

	weightTailRx = regexp.MustCompile(`(?i)\s*(?:(?:con|a|@)\s*)?(\d+(?:[.,]\d+)?)\s*(?:kg|kgs|kilos)\.?\s*$|\s+(?:con|a|@)\s*(\d+(?:[.,]\d+)?)\s*\.?\s*$`)
	bareWeightRx = regexp.MustCompile(`(?i)^\s*(?:(?:con|a|@)\s*)?(\d+(?:[.,]\d+)?)\s*(?:kg|kgs|kilos)?\.?\s*$`)
	verbOnlyRx   = regexp.MustCompile(`(?i)^` + verbs + `$`)
)

// Parse extracts an exercise log from free text using fixed patterns:
// "<N>x<M> [de] <exercise> [con <W>kg]", "<exercise> <N>x<M> [W[kg]]" or
// "<verb> <M> <exercise>" (one set, no weight).
func Parse(text string) (Log, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Log{}, ErrUnparseable
	}

	if m := setsFirstRx.FindStringSubmatch(text); m != nil {
		name, w := splitWeight(m[3])
		if l, valid := build(name, m[1], m[2], w); valid {
			return l, nil
		}
	}
	if m := nameFirstRx.FindStringSubmatch(text); m != nil {
		w := 0.0
		if tail := strings.TrimSpace(m[4]); tail != "" {
			bw := bareWeightRx.FindStringSubmatch(tail)
			if bw == nil {
				return Log{}, ErrUnparseable
			}
			w = parseKg(bw[1])
		}
		if l, valid := build(m[1], m[2], m[3], w); valid {
			return l, nil
		}
	}
	if m := repsOnlyRx.FindStringSubmatch(text); m != nil {
		if l, valid := build(m[2], "1", m[1], 0); valid {
			return l, nil
		}
	}
	return Log{}, ErrUnparseable
}

// splitWeight removes a trailing "con 100kg" from an exercise phrase.
func splitWeight(s string) (string, float64) {
	loc := weightTailRx.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, 0
	}
	var num string
	switch {
	case loc[2] >= 0:
		num = s[loc[2]:loc[3]]
	case loc[4] >= 0:
		num = s[loc[4]:loc[5]]
	}
	return s[:loc[0]], parseKg(num)
}

func build(name, sets, reps string, w float64) (Log, bool) {
	name = strings.TrimSpace(strings.Trim(strings.TrimSpace(name), ".,;:"))
	s, err1 := strconv.Atoi(sets)
	r, err2 := strconv.Atoi(reps)
	l := Log{Exercise: name, Sets: s, Reps: r, WeightKg: w}
	return l, err1 == nil && err2 == nil && l.Valid() && !verbOnlyRx.MatchString(name)
}

func parseKg(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0
	}
	return f
}
