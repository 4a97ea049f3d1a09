package llm

import _ "embed"

// Embeds for prompts used by the llm package.

//go:embed prompts/principles-system.txt
var PrinciplesSystem string

//go:embed prompts/routine-system.txt
var RoutineSystem string

//go:embed prompts/exercise-log-system.txt
var ExerciseLogSystem string

//go:embed prompts/repair.txt
var Repair string
