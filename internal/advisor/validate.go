package advisor

import (
	"strings"

	"github.com/i474232898/climate-advisory/internal/common"
)

// Phrases that only appear when a model repeats its instructions.
var instructionEchoes = []string{
	"redacta una respuesta",
	"responde en español",
	"usuario pregunta",
	"contexto:",
	"añade una recomendación",
	"anade una recomendación",
	"promedio_mensual=",
	"tendencia=",
}

var promptReferences = []string{
	"usuario pregunta",
	"contexto",
}

// Acceptable reports whether a reply can be shown to the user. It rejects
// empty text and text that echoes the prompt. It is a heuristic filter.
func Acceptable(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	return !looksLikeInstruction(t) && !referencesPrompt(t)
}

func looksLikeInstruction(t string) bool {
	return common.HasAny(t, instructionEchoes...)
}

func referencesPrompt(t string) bool {
	return common.HasAny(t, promptReferences...)
}
