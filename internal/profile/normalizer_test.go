package profile

import (
	"reflect"
	"testing"
)

func TestNormalizeAliasesAndTokenization(t *testing.T) {
	raw := map[string]any{
		"User_Skills": "Python, SQL; python / Go ",
		"years_exp":   "5",
		"Location":    "Berlin",
		"about":       "Backend engineer",
		"unknown_key": 42,
	}

	p := Normalize(raw)

	expected := []string{"python", "sql", "go"}
	if !reflect.DeepEqual(p.Skills, expected) {
		t.Fatalf("unexpected skills: %v", p.Skills)
	}
	if p.YearsExperience != 5 {
		t.Fatalf("expected 5 years, got %v", p.YearsExperience)
	}
	if p.DesiredLocation != "Berlin" {
		t.Fatalf("unexpected location: %q", p.DesiredLocation)
	}
	if p.FreeText != "Backend engineer" {
		t.Fatalf("unexpected free text: %q", p.FreeText)
	}
	if p.Partial {
		t.Fatalf("did not expect partial flag")
	}
}

func TestNormalizeSkillsAsList(t *testing.T) {
	p := Normalize(map[string]any{
		"skills":           []any{"Go", " Kubernetes ", "go"},
		"years_experience": 3,
	})

	expected := []string{"go", "kubernetes"}
	if !reflect.DeepEqual(p.Skills, expected) {
		t.Fatalf("unexpected skills: %v", p.Skills)
	}
	if p.Partial {
		t.Fatalf("did not expect partial flag")
	}
}

func TestNormalizeNonNumericYearsSetsPartial(t *testing.T) {
	p := Normalize(map[string]any{
		"skills":    "go",
		"years_exp": "five",
	})

	if p.YearsExperience != 0 {
		t.Fatalf("expected zero years, got %v", p.YearsExperience)
	}
	if !p.Partial {
		t.Fatalf("expected partial flag for non-numeric years")
	}
	if len(p.Skills) != 1 || p.Skills[0] != "go" {
		t.Fatalf("skills should survive bad years: %v", p.Skills)
	}
}

func TestNormalizeClampsYears(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  float64
	}{
		{"negative", -3, 0},
		{"too-large", 120, 60},
		{"in-range", 12.5, 12.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Normalize(map[string]any{"skills": "go", "years_experience": tc.input})
			if p.YearsExperience != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, p.YearsExperience)
			}
		})
	}
}

func TestNormalizeEmptyPayloadDegrades(t *testing.T) {
	p := Normalize(map[string]any{})

	if !p.Partial {
		t.Fatalf("expected partial flag for empty payload")
	}
	if len(p.Skills) != 0 {
		t.Fatalf("expected no skills, got %v", p.Skills)
	}
	if p.YearsExperience != 0 {
		t.Fatalf("expected zero years, got %v", p.YearsExperience)
	}
}

func TestNormalizeIsPure(t *testing.T) {
	raw := map[string]any{
		"skills":    "go; docker",
		"years_exp": 4,
		"summary":   "text",
	}

	first := Normalize(raw)
	second := Normalize(raw)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize is not deterministic: %+v vs %+v", first, second)
	}
}

func TestTokenizeDropsEmptyTokens(t *testing.T) {
	tokens := Tokenize(" , ;; / ", "a,,b")
	expected := []string{"a", "b"}
	if !reflect.DeepEqual(tokens, expected) {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
}
