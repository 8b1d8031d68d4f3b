package rubric

import "fmt"

// Criterion is one named rubric entry. PassRule and FailRule are
// natural-language decision rules sent to the model as instructions; the
// builder interpolates them, it never evaluates them.
type Criterion struct {
	Key      string
	Label    string
	PassRule string
	FailRule string
}

// ScoringMode selects how the overall score is produced.
type ScoringMode string

const (
	// ScoringModeModel trusts the score field the model returned.
	ScoringModeModel ScoringMode = "model"
	// ScoringModeDerived ignores any model-asserted score and counts passed
	// criteria locally, so score is always consistent with the verdicts.
	ScoringModeDerived ScoringMode = "derived"
)

// Bands holds the inclusive lower thresholds for the hire classification.
type Bands struct {
	Hire  int
	Maybe int
}

// Band labels.
const (
	BandHire   = "HIRE"
	BandMaybe  = "MAYBE"
	BandNoHire = "NO HIRE"
)

// Rubric is a versioned evaluation configuration. Prompt text is rendered
// from this structure; nothing in the pipeline hard-codes a criterion list.
type Rubric struct {
	Version     string
	Criteria    []Criterion
	ScoringMode ScoringMode
	MinScore    int
	MaxScore    int
	Bands       Bands
}

// Keys returns the criterion keys in rubric order.
func (r Rubric) Keys() []string {
	keys := make([]string, 0, len(r.Criteria))
	for _, c := range r.Criteria {
		keys = append(keys, c.Key)
	}
	return keys
}

// Band classifies a score using the rubric's thresholds.
func (r Rubric) Band(score int) string {
	switch {
	case score >= r.Bands.Hire:
		return BandHire
	case score >= r.Bands.Maybe:
		return BandMaybe
	default:
		return BandNoHire
	}
}

// DefaultVersion is the rubric applied when none is configured.
const DefaultVersion = "v3"

// Get returns the rubric for a version and whether it was recognized.
func Get(version string) (Rubric, bool) {
	for _, r := range registry {
		if r.Version == version {
			return r, true
		}
	}
	return Rubric{}, false
}

// MustGet returns the rubric for a version or panics. For wiring code that
// validates versions at startup.
func MustGet(version string) Rubric {
	r, ok := Get(version)
	if !ok {
		panic(fmt.Sprintf("unknown rubric version %q", version))
	}
	return r
}

// Default returns the current rubric.
func Default() Rubric {
	return MustGet(DefaultVersion)
}

var baseCriteria = []Criterion{
	{
		Key:      "jobStability",
		Label:    "Estabilidad Laboral",
		PassRule: "ha permanecido al menos 1 año en la mayoría de sus posiciones recientes",
		FailRule: "el candidato estuvo menos de 1 año en 2 o más de sus últimas 5 posiciones, o las fechas no pueden determinarse",
	},
	{
		Key:      "seniority",
		Label:    "Seniority/Experiencia",
		PassRule: "tiene al menos 3 años de experiencia profesional total",
		FailRule: "tiene menos de 3 años de experiencia total",
	},
	{
		Key:      "education",
		Label:    "Educación",
		PassRule: "tiene carrera universitaria terminada (Lic./Ing./Bachelor's)",
		FailRule: "no tiene carrera universitaria terminada",
	},
	{
		Key:      "language",
		Label:    "Idiomas",
		PassRule: "habla inglés mínimo B2/intermedio-avanzado (si el CV está escrito en inglés, considerar OK)",
		FailRule: "no acredita inglés mínimo B2",
	},
	{
		Key:      "certifications",
		Label:    "Certificaciones",
		PassRule: "tiene al menos 1 certificación o curso relevante para su posición actual",
		FailRule: "no presenta ninguna certificación ni curso relevante",
	},
	{
		Key:      "careerGrowth",
		Label:    "Crecimiento Profesional",
		PassRule: "ha tenido mínimo 1 ascenso en los últimos 6 años (excepto si ya es C-level/Director/VP)",
		FailRule: "no muestra ningún ascenso en los últimos 6 años sin ser C-level/Director/VP",
	},
	{
		Key:      "companyExperience",
		Label:    "Experiencia en Empresas",
		PassRule: "ha trabajado en empresa internacional, Fortune 500, Big Four o startup tech",
		FailRule: "solo ha trabajado en PYMES tradicionales",
	},
	{
		Key:      "spelling",
		Label:    "Ortografía y Gramática",
		PassRule: "el texto tiene 3 o menos errores ortográficos",
		FailRule: "hay más de 3 errores ortográficos en el CV",
	},
}

var fitCriteria = []Criterion{
	{
		Key:      "roleFit",
		Label:    "Fit con el Rol",
		PassRule: "la experiencia y habilidades del candidato corresponden al rol descrito",
		FailRule: "la trayectoria del candidato no corresponde al rol descrito",
	},
	{
		Key:      "companyFit",
		Label:    "Fit con la Empresa",
		PassRule: "el perfil del candidato encaja con la empresa e industria descritas",
		FailRule: "el perfil del candidato no encaja con la empresa o industria descritas",
	},
}

var depthCriteria = []Criterion{
	{
		Key:      "achievements",
		Label:    "Logros Cuantificables",
		PassRule: "presenta logros con métricas, porcentajes o resultados concretos en al menos una posición",
		FailRule: "no presenta ningún logro cuantificable, solo listas de responsabilidades",
	},
	{
		Key:      "continuousLearning",
		Label:    "Actualización Continua",
		PassRule: "muestra formación, cursos o aprendizaje de herramientas nuevas en los últimos 3 años",
		FailRule: "no muestra ninguna formación ni actualización en los últimos 3 años",
	},
}

func concat(groups ...[]Criterion) []Criterion {
	var out []Criterion
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var registry = []Rubric{
	{
		Version:     "v1",
		Criteria:    baseCriteria,
		ScoringMode: ScoringModeModel,
		MinScore:    1,
		MaxScore:    10,
		Bands:       Bands{Hire: 8, Maybe: 6},
	},
	{
		Version:     "v2",
		Criteria:    concat(baseCriteria, fitCriteria),
		ScoringMode: ScoringModeDerived,
		MinScore:    0,
		MaxScore:    10,
		Bands:       Bands{Hire: 8, Maybe: 6},
	},
	{
		Version:     "v3",
		Criteria:    concat(baseCriteria, fitCriteria, depthCriteria),
		ScoringMode: ScoringModeDerived,
		MinScore:    0,
		MaxScore:    12,
		Bands:       Bands{Hire: 11, Maybe: 8},
	},
}

// Versions lists the registered rubric versions, oldest first.
func Versions() []string {
	out := make([]string, 0, len(registry))
	for _, r := range registry {
		out = append(out, r.Version)
	}
	return out
}
