package evaluations

import "testing"

func TestClassifyFeedback(t *testing.T) {
	feedback := "Cabe destacar la sólida experiencia en backend. " +
		"Falta formación universitaria completa. " +
		"Excelente progresión de carrera.\n" +
		"Preocupa la rotación frecuente en los últimos años."

	highlights, alerts := ClassifyFeedback(feedback)

	if len(highlights) != 2 {
		t.Fatalf("highlights = %v, want 2 entries", highlights)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %v, want 2 entries", alerts)
	}
	for _, h := range highlights {
		if h == "" {
			t.Error("empty highlight entry")
		}
	}
}

func TestClassifyFeedbackHighlightMarkerWinsOverAlertMarker(t *testing.T) {
	highlights, alerts := ClassifyFeedback("Buena trayectoria aunque falta certificación")
	if len(highlights) != 1 || len(alerts) != 0 {
		t.Fatalf("mixed-marker sentence classified as %v / %v, want highlight", highlights, alerts)
	}

	highlights, alerts = ClassifyFeedback("Cuenta con experiencia relevante pero preocupa la rotación")
	if len(highlights) != 1 || len(alerts) != 0 {
		t.Fatalf("mixed-marker sentence classified as %v / %v, want highlight", highlights, alerts)
	}
}

func TestClassifyFeedbackDefaultsToHighlight(t *testing.T) {
	highlights, alerts := ClassifyFeedback("Perfil interesante para el puesto")
	if len(highlights) != 1 || len(alerts) != 0 {
		t.Fatalf("neutral sentence classified as %v / %v", highlights, alerts)
	}
}

func TestClassifyFeedbackEmpty(t *testing.T) {
	highlights, alerts := ClassifyFeedback("   ")
	if len(highlights) != 0 || len(alerts) != 0 {
		t.Fatalf("blank feedback produced %v / %v", highlights, alerts)
	}
}
