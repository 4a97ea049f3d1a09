package profile

import (
	"encoding/json"

	"github.com/aaronromeo/swolecoach/internal/workout"
)

// Keys every profile document must carry.
var RequiredKeys = []string{"level", "objetivo"}

type Logistics struct {
	Equipment      []string `json:"equipamiento_disponible,omitempty" yaml:"equipamiento_disponible,omitempty"`
	PreferredDays  []string `json:"dias_preferidos,omitempty" yaml:"dias_preferidos,omitempty"`
	SessionMinutes int      `json:"duracion_sesion_min,omitempty" yaml:"duracion_sesion_min,omitempty"`
}

// Profile is the typed view of a user document. Keys not modelled here are
// preserved by the store on write.
type Profile struct {
	UserID        string           `json:"-" yaml:"-"`
	Name          string           `json:"name,omitempty" yaml:"name,omitempty"`
	Level         string           `json:"level" yaml:"level"`
	Objective     string           `json:"objetivo" yaml:"objetivo"`
	Restrictions  []string         `json:"restricciones,omitempty" yaml:"restricciones,omitempty"`
	Logistics     Logistics        `json:"preferencias_logistica" yaml:"preferencias_logistica"`
	Frequency     FlexString       `json:"frecuencia_semanal,omitempty" yaml:"frecuencia_semanal,omitempty"`
	Favorites     []string         `json:"ejercicios_favoritos,omitempty" yaml:"ejercicios_favoritos,omitempty"`
	WorkoutCount  int              `json:"workout_count,omitempty" yaml:"workout_count,omitempty"`
	ActiveRoutine *workout.Routine `json:"rutina_activa,omitempty" yaml:"-"`
	UpdatedAt     string           `json:"updated_at,omitempty" yaml:"-"`
}

// FlexString accepts either a JSON string or a JSON number ("4 días" or 4).
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// MaxSessionMinutes returns the user's session ceiling or def when unset.
func (p Profile) MaxSessionMinutes(def int) int {
	if p.Logistics.SessionMinutes > 0 {
		return p.Logistics.SessionMinutes
	}
	return def
}
