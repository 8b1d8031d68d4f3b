package rubric

import (
	"strings"
	"testing"
)

func TestBuildPromptDeterministic(t *testing.T) {
	for _, version := range Versions() {
		r := MustGet(version)
		a := BuildPrompt(r, "cv text", "Senior Backend Engineer", "Fintech startup", "full jd")
		b := BuildPrompt(r, "cv text", "Senior Backend Engineer", "Fintech startup", "full jd")
		if a != b {
			t.Errorf("rubric %s: prompt not deterministic", version)
		}
	}
}

func TestBuildPromptContainsAllCriteria(t *testing.T) {
	r := MustGet("v3")
	prompt := BuildPrompt(r, "cv text", "role", "company", "")
	for _, c := range r.Criteria {
		if !strings.Contains(prompt, `"`+c.Key+`"`) {
			t.Errorf("prompt missing criterion key %s in JSON shape", c.Key)
		}
		if !strings.Contains(prompt, strings.ToUpper(c.Label)) {
			t.Errorf("prompt missing criterion label %s", c.Label)
		}
	}
}

func TestBuildPromptDatesGuard(t *testing.T) {
	prompt := BuildPrompt(MustGet("v3"), "cv", "role", "company", "")
	if !strings.Contains(prompt, "enumera explícitamente TODAS las fechas") {
		t.Error("prompt missing date enumeration instruction")
	}
	if !strings.Contains(prompt, "Nunca afirmes que no hay fechas") {
		t.Error("prompt missing no-dates-found guard")
	}
}

func TestBuildPromptScoreFieldOnlyForModelMode(t *testing.T) {
	modelPrompt := BuildPrompt(MustGet("v1"), "cv", "role", "company", "")
	if !strings.Contains(modelPrompt, `"score"`) {
		t.Error("model-mode prompt should request a score field")
	}
	derivedPrompt := BuildPrompt(MustGet("v3"), "cv", "role", "company", "")
	if strings.Contains(derivedPrompt, `"score"`) {
		t.Error("derived-mode prompt should not request a score field")
	}
}

func TestBuildPromptJobDescriptionOptional(t *testing.T) {
	with := BuildPrompt(MustGet("v3"), "cv", "role", "company", "the full jd")
	if !strings.Contains(with, "JOB DESCRIPTION COMPLETA") {
		t.Error("prompt should include job description section when provided")
	}
	if !strings.Contains(with, "the full jd") {
		t.Error("prompt should interpolate job description text")
	}
	without := BuildPrompt(MustGet("v3"), "cv", "role", "company", "   ")
	if strings.Contains(without, "JOB DESCRIPTION COMPLETA") {
		t.Error("prompt should omit job description section when blank")
	}
}

func TestBuildPromptInterpolatesContext(t *testing.T) {
	prompt := BuildPrompt(MustGet("v2"), "texto del cv", "Growth Marketing Manager", "Fintech B2B", "")
	for _, want := range []string{"texto del cv", "Growth Marketing Manager", "Fintech B2B"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing interpolated input %q", want)
		}
	}
}
