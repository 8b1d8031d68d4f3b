package rubric

import (
	"fmt"
	"strings"
)

// SystemPrompt is the fixed system instruction sent with every scoring call.
const SystemPrompt = "Eres un experto en recursos humanos analizando CVs de candidatos. Responde solo en el formato JSON solicitado, sin texto adicional."

// datesGuard instructs the model to enumerate every date before judging the
// temporal criteria. This guards against a known failure mode where the model
// claims "no hay fechas" on CVs that plainly contain them; keep the intent
// intact when editing.
const datesGuard = `IMPORTANTE SOBRE FECHAS: Antes de evaluar estabilidad laboral, seniority o crecimiento profesional, enumera explícitamente TODAS las fechas y períodos (años, meses, rangos) que encuentres en el CV. Nunca afirmes que no hay fechas si el texto contiene cualquier año o período reconocible. Basa tu veredicto únicamente en las fechas enumeradas.`

// BuildPrompt renders the evaluation prompt for a rubric. It is a pure
// function: identical inputs always produce identical output.
func BuildPrompt(r Rubric, cvText, roleInfo, companyInfo, jobDescriptionText string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analiza este CV y evalúalo según estos %d criterios específicos:\n\n", len(r.Criteria))

	fmt.Fprintf(&b, "CONTEXTO DEL ROL: %s\n", strings.TrimSpace(roleInfo))
	fmt.Fprintf(&b, "CONTEXTO DE LA EMPRESA: %s\n\n", strings.TrimSpace(companyInfo))

	for i, c := range r.Criteria {
		fmt.Fprintf(&b, "%d. %s: PASA si %s. RED FLAG si %s.\n", i+1, strings.ToUpper(c.Label), c.PassRule, c.FailRule)
	}

	b.WriteString("\n")
	b.WriteString(datesGuard)
	b.WriteString("\n\n")

	if jd := strings.TrimSpace(jobDescriptionText); jd != "" {
		fmt.Fprintf(&b, "JOB DESCRIPTION COMPLETA:\n%s\n\n", jd)
	}

	fmt.Fprintf(&b, "CV A ANALIZAR:\n%s\n\n", cvText)

	b.WriteString("Responde EXACTAMENTE en este formato JSON:\n")
	b.WriteString(jsonShape(r))

	return b.String()
}

// jsonShape renders the literal response shape the model must return. The
// score field is only requested for model-asserted rubrics; derived rubrics
// recompute it locally.
func jsonShape(r Rubric) string {
	var b strings.Builder
	b.WriteString("{\n")
	if r.ScoringMode == ScoringModeModel {
		fmt.Fprintf(&b, "  \"score\": [número del %d-%d],\n", r.MinScore, r.MaxScore)
	}
	b.WriteString("  \"feedback\": \"[explicación general de la evaluación]\",\n")
	b.WriteString("  \"criteria\": {\n")
	for i, c := range r.Criteria {
		sep := ","
		if i == len(r.Criteria)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "    %q: {\"passed\": [true/false], \"message\": \"[explicación específica]\"}%s\n", c.Key, sep)
	}
	b.WriteString("  }\n")
	b.WriteString("}")
	return b.String()
}
