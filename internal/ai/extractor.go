package ai

import (
	"context"
	"errors"
)

// ErrUpstreamUnavailable marks failures where the model service never ran
// the request: missing credential, auth rejection, quota exhaustion,
// network failure or timeout. It is never retried.
var ErrUpstreamUnavailable = errors.New("model service unavailable")

// ErrUnparseableOutput marks a response that could not be coerced into the
// resume schema after the bounded retry. It means the model ran and
// answered badly, as opposed to ErrUpstreamUnavailable.
var ErrUnparseableOutput = errors.New("model output is not parseable")

// Status tags the degree of success of a structured extraction.
type Status string

const (
	// StatusOK means the record validated without intervention.
	StatusOK Status = "ok"
	// StatusRepaired means one or more malformed fields were dropped and
	// the confidence was reduced accordingly.
	StatusRepaired Status = "repaired"
)

// Extraction is the outcome of a structured extraction call. A failed
// extraction is reported through the error return instead; Resume is always
// schema-valid when Extraction is returned.
type Extraction struct {
	Resume  *ExtractedResume `json:"resume"`
	Status  Status           `json:"status"`
	Dropped []string         `json:"dropped_fields,omitempty"`
}

// ExtractedResume is the schema-validated candidate record produced from an
// uploaded document. It is transient and never persisted.
type ExtractedResume struct {
	Name          string            `json:"name,omitempty"`
	Email         string            `json:"email,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	Skills        []string          `json:"skills"`
	Experience    []ExperienceEntry `json:"experience"`
	Education     []EducationEntry  `json:"education"`
	RawConfidence float64           `json:"raw_confidence"`
}

type ExperienceEntry struct {
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

type EducationEntry struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	Year        string `json:"year,omitempty"`
}

// Extractor coerces free-form document text into a validated resume record.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Extraction, error)
}
