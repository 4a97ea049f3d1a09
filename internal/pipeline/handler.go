package pipeline

import (
	"context"
	"fmt"
	"strings"
)

const (
	unknownError   = "unknown error"
	genericApology = "Ocurrió un error inesperado procesando tu solicitud."
)

var kindMessages = map[ErrorKind]string{
	KindUnknownRequest:         "No entendí qué necesitas. Puedo crear una rutina, registrar un ejercicio o mostrar tu historial.",
	KindUserNotFound:           "Tu perfil de usuario no se encontró en el sistema.",
	KindCorruptProfile:         "Hubo un problema al leer los datos de tu perfil. Podría estar corrupto.",
	KindIncompleteProfile:      "A tu perfil le faltan datos esenciales (como nivel u objetivo).",
	KindProfileUnavailable:     "No tengo tu perfil cargado para continuar.",
	KindExtraction:             "Hubo un problema comunicándome con el sistema de extracción de información.",
	KindNoPassages:             "No pude obtener los principios de entrenamiento del libro en este momento.",
	KindHallucination:          "No pude verificar la información extraída del libro (faltan citas). No puedo proceder de forma segura.",
	KindPromptMissing:          "Error interno: falta una plantilla necesaria para generar la rutina.",
	KindPrinciplesUnavailable:  "No pude obtener los principios de entrenamiento del libro en este momento.",
	KindMalformedOutput:        "La IA generó una respuesta en un formato inesperado y no se pudo procesar.",
	KindGeneration:             "No pude comunicarme con la IA para generar la rutina. Inténtalo de nuevo en unos minutos.",
	KindValidation:             "La rutina generada no parece cumplir con los principios o tus preferencias.",
	KindValidationRIR:          "La rutina generada no respeta el RIR recomendado por el libro.",
	KindValidationTempo:        "La rutina generada no respeta el tempo recomendado por el libro.",
	KindValidationCompensatory: "La rutina generada no incluyó ejercicios compensatorios necesarios.",
	KindValidationDuration:     "La rutina generada es demasiado larga para el tiempo que especificaste.",
	KindEmptyRoutine:           "No se generó una rutina válida para guardar.",
	KindPersistence:            "Hubo un problema al intentar guardar la rutina en tu perfil.",
	KindVerification:           "Error interno al verificar que la rutina se guardó correctamente.",
	KindUnparseableLog:         "No entendí el ejercicio. Prueba con algo como: 'registra 5x5 de sentadilla con 100kg'.",
	KindHistory:                "Hubo un problema al acceder a tu historial de entrenamientos.",
	kindPermission:             "Error del sistema al intentar guardar (problema de permisos).",
	kindDiskFull:               "Error del sistema al intentar guardar (espacio en disco lleno).",
}

// phraseMessages is consulted in order for untagged errors; a phrase that
// contains another must come before it.
var phraseMessages = []struct {
	phrase string
	kind   ErrorKind
}{
	{"user not found", KindUserNotFound},
	{"corrupt profile", KindCorruptProfile},
	{"incomplete profile", KindIncompleteProfile},
	{"profile unavailable", KindProfileUnavailable},
	{"unrecognized request type", KindUnknownRequest},
	{"hallucination detected", KindHallucination},
	{"retrieval returned no passages", KindNoPassages},
	{"extraction/api error", KindExtraction},
	{"prompt template not found", KindPromptMissing},
	{"principles unavailable", KindPrinciplesUnavailable},
	{"could not produce valid structured output", KindMalformedOutput},
	{"but principles say rir=", KindValidationRIR},
	{"but principles say tempo=", KindValidationTempo},
	{"is missing from the routine", KindValidationCompensatory},
	{"min limit", KindValidationDuration},
	{"validation failed", KindValidation},
	{"empty routine", KindEmptyRoutine},
	{"persistence verification failed", KindVerification},
	{"permission denied", kindPermission},
	{"no space left on device", kindDiskFull},
	{"write profile", KindPersistence},
	{"please rephrase", KindUnparseableLog},
	{"history", KindHistory},
}

// Persistence failures narrowed down by cause.
const (
	kindPermission ErrorKind = "permission"
	kindDiskFull   ErrorKind = "disk_full"
)

// UserMessage resolves the sentence shown for an error: the tagged kind
// first, the phrase table for untagged errors, the generic apology otherwise.
func UserMessage(kind ErrorKind, errText string) string {
	if kind != KindNone && kind != KindUnknown {
		if m, ok := kindMessages[kind]; ok {
			return m
		}
		return genericApology
	}
	folded := strings.ToLower(errText)
	for _, pm := range phraseMessages {
		if strings.Contains(folded, pm.phrase) {
			return kindMessages[pm.kind]
		}
	}
	return genericApology
}

// handleError is the only place technical errors become user text. It never
// fails and gives the same response for the same error and failing step.
func (n *nodes) handleError(_ context.Context, st State) State {
	if st.Error == "" {
		st.Error = unknownError
	}
	if st.Kind == KindNone {
		st.Kind = KindUnknown
	}
	failed := st.FailedStep
	if failed == "" {
		failed = st.Step
	}
	if failed == "" {
		failed = "desconocido"
	}
	st.FailedStep = failed

	n.d.Logger.Error("turn failed", "turn_id", st.TurnID, "user_id", st.UserID, "step", failed, "kind", st.Kind, "err", st.Error)

	st.Response = fmt.Sprintf("❌ Lo siento, hubo un problema: %s\n(Referencia: paso '%s')", UserMessage(st.Kind, st.Error), failed)
	st.Step = StepError
	st.Principles = nil
	st.Routine = nil
	return st
}
