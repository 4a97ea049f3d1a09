package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aaronromeo/swolecoach/internal/workout"
)

const oneRMUsage = "Uso: 1rm <peso_kg> <repeticiones>"

var oneRMCmd = &cobra.Command{
	Use:   "1rm <peso_kg> <repeticiones>",
	Short: "Estimate a one-rep max from a set",
	Long: `Estimate a one-rep max with the Brzycki formula.

The estimate is only given for 1 to 12 repetitions. The weight accepts a
decimal point or comma, e.g. "swolecoach 1rm 82,5 6".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := oneRMMessage(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(oneRMCmd)
}

// oneRMMessage parses [peso_kg, repeticiones] and returns the user-facing
// estimate. A rep count outside the reliable range is a message, not an
// error.
func oneRMMessage(args []string) (string, error) {
	if len(args) != 2 {
		return "", errors.New(oneRMUsage)
	}
	weight, err := strconv.ParseFloat(strings.ReplaceAll(args[0], ",", "."), 64)
	if err != nil {
		return "", fmt.Errorf("peso no válido %q", args[0])
	}
	reps, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("repeticiones no válidas %q", args[1])
	}
	rm, err := workout.EstimateOneRM(weight, reps)
	switch {
	case errors.Is(err, workout.ErrRepsOutOfRange):
		return fmt.Sprintf("⚠️ El cálculo es fiable solo para %d-%d repeticiones.", workout.MinOneRMReps, workout.MaxOneRMReps), nil
	case err != nil:
		return "", fmt.Errorf("peso no válido %q", args[0])
	}
	return fmt.Sprintf("💪 Tu 1RM estimado es: %.2f kg", rm), nil
}
