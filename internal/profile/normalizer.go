package profile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	// MaxYearsExperience caps the accepted years of experience.
	MaxYearsExperience = 60
)

// CandidateProfile is the canonical per-request profile every internal
// component operates on. It is built once at the boundary from whatever
// loosely-typed payload the caller supplied.
type CandidateProfile struct {
	Skills          []string `json:"skills"`
	YearsExperience float64  `json:"years_experience"`
	DesiredLocation string   `json:"desired_location,omitempty"`
	FreeText        string   `json:"free_text,omitempty"`
	// Partial is set when an expected field was missing or unusable and
	// the profile degraded to a default instead of failing.
	Partial bool `json:"partial,omitempty"`
}

// aliases maps canonical field names to the accepted payload keys.
var aliases = map[string][]string{
	"skills":           {"skills", "user_skills", "skill_set", "keywords"},
	"years_experience": {"years_experience", "years_exp", "experience_years", "experience"},
	"desired_location": {"desired_location", "location", "preferred_location"},
	"free_text":        {"free_text", "summary", "about"},
}

type looseProfile struct {
	DesiredLocation string `mapstructure:"desired_location"`
	FreeText        string `mapstructure:"free_text"`
}

// Normalize converts an arbitrary caller-supplied payload into a canonical
// profile. It never fails: malformed values degrade to empty defaults and
// set the Partial flag so the caller can surface the degradation.
func Normalize(raw map[string]any) *CandidateProfile {
	p := &CandidateProfile{Skills: []string{}}

	canonical := canonicalizeKeys(raw)

	var loose looseProfile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &loose,
		WeaklyTypedInput: true,
	})
	if err == nil {
		if err := decoder.Decode(canonical); err == nil {
			p.DesiredLocation = strings.TrimSpace(loose.DesiredLocation)
			p.FreeText = strings.TrimSpace(loose.FreeText)
		}
	}

	skills, ok := coerceSkills(canonical["skills"])
	if !ok || len(skills) == 0 {
		p.Partial = true
	}
	p.Skills = skills

	years, ok := coerceYears(canonical["years_experience"])
	if !ok {
		p.Partial = true
	}
	p.YearsExperience = clampYears(years)

	return p
}

// canonicalizeKeys lowercases and trims payload keys and resolves aliases.
// Unknown keys are dropped. The first alias present wins.
func canonicalizeKeys(raw map[string]any) map[string]any {
	lowered := make(map[string]any, len(raw))
	for key, value := range raw {
		lowered[strings.ToLower(strings.TrimSpace(key))] = value
	}

	canonical := make(map[string]any, len(aliases))
	for name, keys := range aliases {
		for _, key := range keys {
			if value, ok := lowered[key]; ok {
				canonical[name] = value
				break
			}
		}
	}
	return canonical
}

// Tokenize normalizes skill strings into canonical tokens: lowercased,
// trimmed, split on common delimiters, empties dropped, deduplicated with
// input order preserved.
func Tokenize(values ...string) []string {
	tokens := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, value := range values {
		for _, part := range strings.FieldsFunc(value, isSkillDelimiter) {
			token := strings.ToLower(strings.TrimSpace(part))
			if token == "" {
				continue
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}
	return tokens
}

func isSkillDelimiter(r rune) bool {
	return r == ',' || r == ';' || r == '/'
}

func coerceSkills(v any) ([]string, bool) {
	switch value := v.(type) {
	case nil:
		return []string{}, false
	case string:
		return Tokenize(value), true
	case []string:
		return Tokenize(value...), true
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			switch s := item.(type) {
			case string:
				parts = append(parts, s)
			case float64, int, bool:
				parts = append(parts, fmt.Sprintf("%v", s))
			}
		}
		return Tokenize(parts...), true
	default:
		return []string{}, false
	}
}

func coerceYears(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return 0, false
		}
		years, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return years, true
	default:
		return 0, false
	}
}

func clampYears(years float64) float64 {
	if years < 0 {
		return 0
	}
	if years > MaxYearsExperience {
		return MaxYearsExperience
	}
	return years
}
