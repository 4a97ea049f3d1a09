package workout

import "time"

// Exercise categories inside a session.
const (
	CategoryPrincipal    = "principal"
	CategoryCompensatory = "ECI"
	CategoryAccessory    = "accesorio"
)

const DefaultValidityWeeks = 4

// Compensatory is an individualized compensatory exercise (ECI) recommended
// by the reference book for one of the user's restrictions.
type Compensatory struct {
	Name   string `json:"nombre_ejercicio" yaml:"nombre_ejercicio" jsonschema:"description=Nombre completo del ejercicio compensatorio del libro"`
	Reason string `json:"motivo" yaml:"motivo" jsonschema:"description=Por qué se recomienda (ej: 'Para compensar rodilla izquierda')"`
	Source string `json:"fuente_cita" yaml:"fuente_cita" jsonschema:"description=Página exacta del libro (ej: 'Página 107 Tabla 16')"`
	Sets   int    `json:"sets" yaml:"sets" jsonschema:"minimum=1,maximum=10,description=Series recomendadas"`
	Reps   string `json:"reps" yaml:"reps" jsonschema:"description=Rango de repeticiones (ej: '8-12')"`
}

// Principles are the training variables extracted from the reference book.
// A value is immutable once produced; Citations must be non-empty for the
// value to be usable.
type Principles struct {
	RIR          string         `json:"intensidad_RIR" yaml:"intensidad_RIR" jsonschema:"description=Rango de RIR (ej: '1-2')"`
	RepRange     string         `json:"rango_repeticiones" yaml:"rango_repeticiones" jsonschema:"description=Rango de repeticiones (ej: '8-12')"`
	RestSeconds  int            `json:"descanso_series_s" yaml:"descanso_series_s" jsonschema:"description=Descanso entre series en segundos"`
	Tempo        string         `json:"cadencia_tempo" yaml:"cadencia_tempo" jsonschema:"description=Tempo excéntrica:pausa:concéntrica:pausa (ej: '3:0:1:1')"`
	Frequency    string         `json:"frecuencia_semanal" yaml:"frecuencia_semanal" jsonschema:"description=Frecuencia semanal (ej: '3-4 días')"`
	Compensatory []Compensatory `json:"ECI_recomendados" yaml:"ECI_recomendados" jsonschema:"description=Ejercicios compensatorios según las restricciones del usuario"`
	Citations    []string       `json:"citas_fuente" yaml:"citas_fuente" jsonschema:"description=Páginas exactas del libro de donde se extrajeron los principios"`
}

type Exercise struct {
	Name        string `json:"nombre" yaml:"nombre" jsonschema:"description=Nombre del ejercicio"`
	Category    string `json:"tipo" yaml:"tipo" jsonschema:"enum=principal,enum=ECI,enum=accesorio"`
	Sets        int    `json:"sets" yaml:"sets" jsonschema:"minimum=1,maximum=10"`
	Reps        string `json:"reps" yaml:"reps" jsonschema:"description=Repeticiones por serie (ej: '8-12' o '5')"`
	RIR         string `json:"RIR" yaml:"RIR" jsonschema:"description=Debe coincidir con intensidad_RIR en ejercicios principales"`
	Tempo       string `json:"tempo" yaml:"tempo" jsonschema:"description=Debe coincidir con cadencia_tempo en ejercicios principales"`
	RestSeconds int    `json:"descanso_s" yaml:"descanso_s" jsonschema:"minimum=30,maximum=300"`
	Notes       string `json:"notas" yaml:"notas,omitempty" jsonschema:"description=Notas del ejercicio; cadena vacía si no hay"`
}

type Session struct {
	Weekday          string     `json:"dia_semana" yaml:"dia_semana"`
	Focus            string     `json:"enfoque_muscular" yaml:"enfoque_muscular"`
	Exercises        []Exercise `json:"ejercicios" yaml:"ejercicios" jsonschema:"minItems=1"`
	EstimatedMinutes int        `json:"duracion_estimada_min" yaml:"duracion_estimada_min" jsonschema:"minimum=0,maximum=180"`
}

// RoutineDraft is what the model produces; the generation step turns it into
// a Routine with Wrap.
type RoutineDraft struct {
	Name          string    `json:"nombre" yaml:"nombre"`
	Sessions      []Session `json:"sesiones" yaml:"sesiones" jsonschema:"minItems=1"`
	ValidityWeeks int       `json:"validez_semanas" yaml:"validez_semanas" jsonschema:"minimum=1,maximum=12"`
}

// Routine is the persisted active routine.
type Routine struct {
	ID            string     `json:"id" yaml:"id"`
	Name          string     `json:"nombre" yaml:"nombre"`
	Sessions      []Session  `json:"sesiones" yaml:"sesiones"`
	Applied       Principles `json:"principios_aplicados" yaml:"principios_aplicados"`
	CreatedAt     string     `json:"fecha_creacion" yaml:"fecha_creacion"`
	ValidityWeeks int        `json:"validez_semanas" yaml:"validez_semanas"`
}

// Wrap attaches the principles copy, creation timestamp and ID to a draft.
func (d RoutineDraft) Wrap(id string, p Principles, createdAt time.Time) Routine {
	weeks := d.ValidityWeeks
	if weeks < 1 || weeks > 12 {
		weeks = DefaultValidityWeeks
	}
	name := d.Name
	if name == "" {
		name = "Rutina Personalizada"
	}
	applied := p
	applied.Compensatory = append([]Compensatory(nil), p.Compensatory...)
	applied.Citations = append([]string(nil), p.Citations...)
	return Routine{
		ID:            id,
		Name:          name,
		Sessions:      d.Sessions,
		Applied:       applied,
		CreatedAt:     createdAt.Format(time.RFC3339Nano),
		ValidityWeeks: weeks,
	}
}
