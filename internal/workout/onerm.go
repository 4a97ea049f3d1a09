package workout

import (
	"errors"
	"math"
)

const (
	MinOneRMReps = 1
	MaxOneRMReps = 12
)

var (
	ErrRepsOutOfRange = errors.New("one-rep max is only reliable for 1-12 reps")
	ErrInvalidWeight  = errors.New("weight must be a positive number of kg")
)

// EstimateOneRM returns the Brzycki estimate of the one-rep max for a set of
// reps at weightKg, rounded to two decimals.
func EstimateOneRM(weightKg float64, reps int) (float64, error) {
	if math.IsNaN(weightKg) || math.IsInf(weightKg, 0) || weightKg <= 0 {
		return 0, ErrInvalidWeight
	}
	if reps < MinOneRMReps || reps > MaxOneRMReps {
		return 0, ErrRepsOutOfRange
	}
	rm := weightKg / (1.0278 - 0.0278*float64(reps))
	return math.Round(rm*100) / 100, nil
}
