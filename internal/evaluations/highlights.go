package evaluations

import "strings"

// Keyword lists used to classify feedback sentences. The model writes its
// feedback in Spanish, so the markers are Spanish. Highlight markers win when
// a sentence carries both kinds.
var (
	highlightMarkers = []string{
		"destacar", "positivo", "fortaleza", "experiencia relevante",
		"buena", "excelente", "sólida", "apropiada",
	}
	alertMarkers = []string{
		"alerta", "preocupa", "falta", "debilidad",
		"problema", "riesgo", "negativo", "insuficiente",
	}
)

// ClassifyFeedback splits free-form feedback into highlight and alert lines.
// A sentence with a highlight marker is a highlight even when an alert marker
// is also present; only then are alert markers checked; anything neutral
// counts as a highlight, since the model leads with strengths.
func ClassifyFeedback(feedback string) (highlights, alerts []string) {
	for _, sentence := range splitSentences(feedback) {
		lower := strings.ToLower(sentence)
		switch {
		case containsAny(lower, highlightMarkers):
			highlights = append(highlights, sentence)
		case containsAny(lower, alertMarkers):
			alerts = append(alerts, sentence)
		default:
			highlights = append(highlights, sentence)
		}
	}
	return highlights, alerts
}

func splitSentences(text string) []string {
	var out []string
	for _, chunk := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '\n'
	}) {
		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
