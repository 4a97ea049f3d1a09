package history

import (
	"fmt"
	"strings"
)

const emptyHistory = "📭 No hay entrenamientos registrados aún."

// FormatRecent renders entries as the numbered list shown to the user.
func FormatRecent(entries []Entry) string {
	if len(entries) == 0 {
		return emptyHistory
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Últimos %d entrenamientos:\n\n", len(entries))
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Exercise)
		fmt.Fprintf(&b, "   └─ %dx%d @ %skg\n", e.Sets, e.Reps, Kg(e.WeightKg))
		fmt.Fprintf(&b, "   📅 %s\n", e.day())
	}
	return b.String()
}

// FormatStats summarises a whole history.
func FormatStats(entries []Entry) string {
	if len(entries) == 0 {
		return "📊 No hay datos de entrenamientos aún."
	}
	unique := map[string]bool{}
	heaviest := 0.0
	for _, e := range entries {
		unique[strings.ToLower(e.Exercise)] = true
		if e.WeightKg > heaviest {
			heaviest = e.WeightKg
		}
	}
	var b strings.Builder
	b.WriteString("📊 Estadísticas:\n")
	fmt.Fprintf(&b, "• Entrenamientos totales: %d\n", len(entries))
	fmt.Fprintf(&b, "• Ejercicios diferentes: %d\n", len(unique))
	fmt.Fprintf(&b, "• Peso máximo: %skg\n", Kg(heaviest))
	return b.String()
}

func (e Entry) day() string {
	if !e.Date.IsZero() {
		return e.Date.Format("2006-01-02")
	}
	if len(e.Timestamp) >= 10 {
		return e.Timestamp[:10]
	}
	return "N/A"
}
