package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/credx/credx-matcher/internal/ai"
	"github.com/credx/credx-matcher/internal/logger"
	"github.com/credx/credx-matcher/internal/profile"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200

	// Appended on the single bounded retry after an unparseable response.
	strictRetryInstruction = "\n\nYour previous answer was not valid JSON. Return ONLY the JSON object. " +
		"No prose, no markdown fences, no text before or after the JSON."

	// Confidence penalty applied per dropped field.
	repairPenalty = 0.75
	minConfidence = 0.05
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Extractor turns free-form resume text into a validated ai.ExtractedResume
// via a schema-constrained Gemini prompt. Malformed output is retried once
// with a stricter instruction; malformed individual fields are dropped with
// a confidence penalty instead of failing the record.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator contentGenerator, log *zap.Logger, maxLogLength int) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Extractor{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Extract implements ai.Extractor.
func (e *Extractor) Extract(ctx context.Context, text string) (*ai.Extraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("document text is required")
	}

	basePrompt := buildPrompt(text)
	prompts := []string{basePrompt, basePrompt + strictRetryInstruction}

	var lastErr error
	for attempt, prompt := range prompts {
		e.logger.Debug("structured extraction request",
			zap.Int("attempt", attempt+1),
			zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		)

		raw, err := e.generator.GenerateContent(ctx, prompt)
		if err != nil {
			if errors.Is(err, ai.ErrUpstreamUnavailable) {
				// The model never ran; retrying with a stricter prompt
				// cannot help.
				return nil, err
			}
			lastErr = err
			continue
		}

		e.logger.Debug("structured extraction response",
			zap.Int("attempt", attempt+1),
			zap.String("response_preview", logger.TruncateForLog(raw, e.maxLogLen)),
		)

		extraction, err := parseResume(raw)
		if err != nil {
			e.logger.Debug("model output is not parseable",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		if extraction.Status == ai.StatusRepaired {
			e.logger.Info("extraction repaired",
				zap.Strings("dropped_fields", extraction.Dropped),
				zap.Float64("raw_confidence", extraction.Resume.RawConfidence),
			)
		}

		return extraction, nil
	}

	return nil, fmt.Errorf("%w: %v", ai.ErrUnparseableOutput, lastErr)
}

func buildPrompt(text string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Extract resume data as JSON.\n\nResume text:\n{{RESUME_TEXT}}"
	}
	return strings.ReplaceAll(template, "{{RESUME_TEXT}}", text)
}

// parseResume coerces the raw model response into a validated record. Shape
// violations on individual fields drop the field; only an undecodable
// top-level payload is an error.
func parseResume(raw string) (*ai.Extraction, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	// json.Unmarshal accepts a literal null without error; an empty record
	// with full confidence must not come out of a non-object payload.
	if data == nil {
		return nil, errors.New("model response is not a JSON object")
	}

	resume := &ai.ExtractedResume{
		Name:       coerceString(data["name"]),
		Email:      coerceString(data["email"]),
		Phone:      coerceString(data["phone"]),
		Skills:     []string{},
		Experience: []ai.ExperienceEntry{},
		Education:  []ai.EducationEntry{},
	}

	var dropped []string

	if value, present := data["skills"]; present && value != nil {
		if skills, ok := coerceStringList(value); ok {
			resume.Skills = profile.Tokenize(skills...)
		} else {
			dropped = append(dropped, "skills")
		}
	}

	if value, present := data["experience"]; present && value != nil {
		entries, fieldDrops, ok := coerceExperience(value)
		if ok {
			resume.Experience = entries
			dropped = append(dropped, fieldDrops...)
		} else {
			dropped = append(dropped, "experience")
		}
	}

	if value, present := data["education"]; present && value != nil {
		entries, ok := coerceEducation(value)
		if ok {
			resume.Education = entries
		} else {
			dropped = append(dropped, "education")
		}
	}

	confidence := coerceFloat(data["raw_confidence"])
	if math.IsNaN(confidence) || confidence <= 0 || confidence > 1 {
		confidence = 1.0
	}
	for range dropped {
		confidence *= repairPenalty
	}
	if confidence < minConfidence {
		confidence = minConfidence
	}
	resume.RawConfidence = confidence

	status := ai.StatusOK
	if len(dropped) > 0 {
		status = ai.StatusRepaired
	}

	return &ai.Extraction{Resume: resume, Status: status, Dropped: dropped}, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around
// the payload.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return ""
	}
}

func coerceFloat(v any) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceStringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			result = append(result, s)
		}
	}
	return result, true
}

func coerceExperience(v any) ([]ai.ExperienceEntry, []string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, nil, false
	}

	entries := make([]ai.ExperienceEntry, 0, len(items))
	var dropped []string
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry := ai.ExperienceEntry{
			Title:   coerceString(fields["title"]),
			Company: coerceString(fields["company"]),
		}
		if start := coerceString(fields["start"]); start != "" {
			if parseableDate(start) {
				entry.Start = start
			} else {
				dropped = append(dropped, "experience.start")
			}
		}
		if end := coerceString(fields["end"]); end != "" {
			if parseableDate(end) {
				entry.End = end
			} else {
				dropped = append(dropped, "experience.end")
			}
		}
		entries = append(entries, entry)
	}
	return entries, dropped, true
}

func coerceEducation(v any) ([]ai.EducationEntry, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}

	entries := make([]ai.EducationEntry, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, ai.EducationEntry{
			Institution: coerceString(fields["institution"]),
			Degree:      coerceString(fields["degree"]),
			Field:       coerceString(fields["field"]),
			Year:        coerceString(fields["year"]),
		})
	}
	return entries, true
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01",
	"01/2006",
	"Jan 2006",
	"January 2006",
	"2006",
}

func parseableDate(s string) bool {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "present", "current", "now":
		return true
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
