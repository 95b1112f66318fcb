package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/credx/credx-matcher/internal/profile"
)

// Required columns of the catalog data source. Extra columns are kept as
// free-form attributes.
var requiredColumns = []string{"id", "title", "required_skills"}

// JobPosting is a single immutable catalog entry.
type JobPosting struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	RequiredSkills     []string          `json:"required_skills"`
	MinExperienceYears float64           `json:"min_experience_years"`
	Location           string            `json:"location,omitempty"`
	Description        string            `json:"description,omitempty"`
	Attributes         map[string]string `json:"attributes,omitempty"`
}

// Catalog holds the loaded job postings. It is never mutated after Load
// returns, so it is safe for unlimited concurrent readers. A reload builds
// a fresh Catalog instead of patching this one.
type Catalog struct {
	source string
	items  []*JobPosting
	byID   map[string]*JobPosting
}

// DataSourceError reports a catalog source that is missing, empty or
// structurally unusable.
type DataSourceError struct {
	Source string
	Reason string
	Err    error
}

func (e *DataSourceError) Error() string {
	msg := fmt.Sprintf("catalog source %q: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// New builds a catalog from in-memory postings. Skill lists are normalized
// to canonical tokens so comparisons behave the same as for loaded catalogs.
func New(source string, postings ...*JobPosting) *Catalog {
	cat := &Catalog{
		source: source,
		byID:   make(map[string]*JobPosting, len(postings)),
	}
	for _, posting := range postings {
		posting.RequiredSkills = profile.Tokenize(posting.RequiredSkills...)
		cat.items = append(cat.items, posting)
		cat.byID[posting.ID] = posting
	}
	return cat
}

// LoadFile loads the catalog from a CSV file on disk.
func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DataSourceError{Source: path, Reason: "cannot open data source", Err: err}
	}
	defer file.Close()

	return Load(file, path)
}

// Load reads a CSV catalog from r. It fails fast when the header is missing
// any of the required columns (id, title, required_skills) or when the
// source contains no rows.
func Load(r io.Reader, source string) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &DataSourceError{Source: source, Reason: "data source is empty"}
	}
	if err != nil {
		return nil, &DataSourceError{Source: source, Reason: "reading header", Err: err}
	}

	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = idx
	}

	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, &DataSourceError{
				Source: source,
				Reason: fmt.Sprintf("missing required column %q", required),
			}
		}
	}

	cat := &Catalog{
		source: source,
		byID:   make(map[string]*JobPosting),
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DataSourceError{Source: source, Reason: "reading row", Err: err}
		}

		posting := buildPosting(row, header, columns)
		if posting.ID == "" {
			continue
		}
		if _, exists := cat.byID[posting.ID]; exists {
			return nil, &DataSourceError{
				Source: source,
				Reason: fmt.Sprintf("duplicate job id %q", posting.ID),
			}
		}

		cat.items = append(cat.items, posting)
		cat.byID[posting.ID] = posting
	}

	if len(cat.items) == 0 {
		return nil, &DataSourceError{Source: source, Reason: "data source contains no job postings"}
	}

	return cat, nil
}

func buildPosting(row []string, header []string, columns map[string]int) *JobPosting {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	posting := &JobPosting{
		ID:             field("id"),
		Title:          field("title"),
		RequiredSkills: profile.Tokenize(field("required_skills")),
		Location:       field("location"),
		Description:    field("description"),
	}

	// Malformed experience values keep the row with a zero requirement.
	if years, err := strconv.ParseFloat(field("min_experience_years"), 64); err == nil && years > 0 {
		posting.MinExperienceYears = years
	}

	known := map[string]struct{}{
		"id": {}, "title": {}, "required_skills": {},
		"min_experience_years": {}, "location": {}, "description": {},
	}
	for idx, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := known[key]; ok {
			continue
		}
		if idx < len(row) && strings.TrimSpace(row[idx]) != "" {
			if posting.Attributes == nil {
				posting.Attributes = make(map[string]string)
			}
			posting.Attributes[key] = strings.TrimSpace(row[idx])
		}
	}

	return posting
}

// All returns the postings in insertion order. The returned slice is a copy;
// the postings themselves are shared and must not be mutated.
func (c *Catalog) All() []*JobPosting {
	items := make([]*JobPosting, len(c.items))
	copy(items, c.items)
	return items
}

func (c *Catalog) Len() int {
	return len(c.items)
}

func (c *Catalog) FindByID(id string) *JobPosting {
	return c.byID[id]
}

// Source returns the origin of the loaded catalog, for logging.
func (c *Catalog) Source() string {
	return c.source
}
