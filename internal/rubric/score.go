package rubric

import (
	"fmt"
	"sort"
	"strings"
)

// CriterionResult is the model's verdict for one criterion.
type CriterionResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// ParsedAnalysis is the structured output of a scoring call after JSON
// decoding, before aggregation.
type ParsedAnalysis struct {
	Score    int                        `json:"score"`
	Feedback string                     `json:"feedback"`
	Criteria map[string]CriterionResult `json:"criteria"`
}

// DefaultCriterionMessage is substituted under the fill_defaults mismatch
// policy for criteria the model omitted.
const DefaultCriterionMessage = "Sin análisis"

// ValidateKeys checks that the parsed criteria key set matches the rubric
// exactly. Missing or extra keys indicate model/schema drift.
func ValidateKeys(criteria map[string]CriterionResult, r Rubric) error {
	var missing, extra []string
	expected := make(map[string]struct{}, len(r.Criteria))
	for _, c := range r.Criteria {
		expected[c.Key] = struct{}{}
		if _, ok := criteria[c.Key]; !ok {
			missing = append(missing, c.Key)
		}
	}
	for key := range criteria {
		if _, ok := expected[key]; !ok {
			extra = append(extra, key)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing keys [%s]", strings.Join(missing, " ")))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("extra keys [%s]", strings.Join(extra, " ")))
	}
	return fmt.Errorf("criteria mismatch for rubric %s: %s", r.Version, strings.Join(parts, ", "))
}

// FillDefaults returns a criteria map restricted to the rubric's key set,
// substituting a failed "Sin análisis" entry for every key the model omitted.
// Extra keys are dropped. Legacy behavior, kept behind a policy switch.
func FillDefaults(criteria map[string]CriterionResult, r Rubric) map[string]CriterionResult {
	out := make(map[string]CriterionResult, len(r.Criteria))
	for _, c := range r.Criteria {
		if v, ok := criteria[c.Key]; ok {
			out[c.Key] = v
			continue
		}
		out[c.Key] = CriterionResult{Passed: false, Message: DefaultCriterionMessage}
	}
	return out
}

// Aggregate produces the final score for a parsed analysis. Derived rubrics
// count passed criteria so the score can never disagree with the verdicts;
// model rubrics validate the asserted score range.
func Aggregate(a ParsedAnalysis, r Rubric) (int, error) {
	switch r.ScoringMode {
	case ScoringModeModel:
		if a.Score < r.MinScore || a.Score > r.MaxScore {
			return 0, fmt.Errorf("model score %d out of range [%d,%d] for rubric %s", a.Score, r.MinScore, r.MaxScore, r.Version)
		}
		return a.Score, nil
	case ScoringModeDerived:
		score := 0
		for _, v := range a.Criteria {
			if v.Passed {
				score++
			}
		}
		return score, nil
	default:
		return 0, fmt.Errorf("unknown scoring mode %q for rubric %s", r.ScoringMode, r.Version)
	}
}
