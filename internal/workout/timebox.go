package workout

import (
	"strconv"
	"strings"
)

const (
	defaultSecondsPerRep = 4
	defaultReps          = 10
	defaultRestSeconds   = 90
)

// EstimateSets returns a rough set count given duration and average per-set time.
func EstimateSets(durationMinutes int, avgSecondsPerSet int) int {
	if avgSecondsPerSet <= 0 {
		avgSecondsPerSet = 90
	}
	if durationMinutes <= 0 {
		return 0
	}
	sec := durationMinutes * 60
	return sec / avgSecondsPerSet
}

// SetSeconds estimates one set plus its rest: reps (midpoint of a range)
// times the tempo's seconds per rep.
func SetSeconds(reps, tempo string, restSeconds int) int {
	if restSeconds <= 0 {
		restSeconds = defaultRestSeconds
	}
	return repCount(reps)*tempoSeconds(tempo) + restSeconds
}

// EstimateSessionMinutes sums SetSeconds over every set of the session,
// rounded up to whole minutes.
func EstimateSessionMinutes(s Session) int {
	total := 0
	for _, ex := range s.Exercises {
		total += ex.Sets * SetSeconds(ex.Reps, ex.Tempo, ex.RestSeconds)
	}
	return (total + 59) / 60
}

// repCount parses "8-12" as 10 and "5" as 5.
func repCount(reps string) int {
	lo, hi, found := strings.Cut(strings.TrimSpace(reps), "-")
	a, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil || a <= 0 {
		return defaultReps
	}
	if !found {
		return a
	}
	b, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil || b < a {
		return a
	}
	return (a + b) / 2
}

// tempoSeconds sums a "3:0:1:1" tempo; "X" (explosive) counts as zero.
func tempoSeconds(tempo string) int {
	parts := strings.Split(strings.TrimSpace(tempo), ":")
	if len(parts) < 2 {
		return defaultSecondsPerRep
	}
	sum := 0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if strings.EqualFold(p, "x") {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return defaultSecondsPerRep
		}
		sum += n
	}
	if sum == 0 {
		return 1
	}
	return sum
}
