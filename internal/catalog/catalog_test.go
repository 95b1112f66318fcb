package catalog

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleCSV = `id,title,required_skills,min_experience_years,location,description,salary_band
1,Data Engineer,"Python, SQL",3,Remote,Build pipelines,B2
2,Java Developer,java,0,Berlin,Backend work,
`

func TestLoadParsesPostings(t *testing.T) {
	cat, err := Load(strings.NewReader(sampleCSV), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cat.Len() != 2 {
		t.Fatalf("expected 2 postings, got %d", cat.Len())
	}

	first := cat.All()[0]
	if first.ID != "1" || first.Title != "Data Engineer" {
		t.Fatalf("unexpected first posting: %+v", first)
	}
	if !reflect.DeepEqual(first.RequiredSkills, []string{"python", "sql"}) {
		t.Fatalf("skills not normalized: %v", first.RequiredSkills)
	}
	if first.MinExperienceYears != 3 {
		t.Fatalf("unexpected experience requirement: %v", first.MinExperienceYears)
	}
	if first.Attributes["salary_band"] != "B2" {
		t.Fatalf("extra column not preserved: %v", first.Attributes)
	}

	if cat.FindByID("2") == nil {
		t.Fatalf("expected to find posting 2")
	}
	if cat.FindByID("404") != nil {
		t.Fatalf("did not expect posting 404")
	}
}

func TestLoadPreservesInsertionOrder(t *testing.T) {
	cat, err := Load(strings.NewReader(sampleCSV), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := make([]string, 0, cat.Len())
	for _, posting := range cat.All() {
		ids = append(ids, posting.ID)
	}
	if !reflect.DeepEqual(ids, []string{"1", "2"}) {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestLoadFailsOnMissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("id,title\n1,Dev\n"), "test")

	var dsErr *DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
	if !strings.Contains(dsErr.Reason, "required_skills") {
		t.Fatalf("unexpected reason: %q", dsErr.Reason)
	}
}

func TestLoadFailsOnEmptySource(t *testing.T) {
	var dsErr *DataSourceError

	if _, err := Load(strings.NewReader(""), "test"); !errors.As(err, &dsErr) {
		t.Fatalf("expected DataSourceError for empty source, got %v", err)
	}

	headerOnly := "id,title,required_skills\n"
	if _, err := Load(strings.NewReader(headerOnly), "test"); !errors.As(err, &dsErr) {
		t.Fatalf("expected DataSourceError for header-only source, got %v", err)
	}
}

func TestLoadFailsOnDuplicateID(t *testing.T) {
	csv := "id,title,required_skills\n1,Dev,go\n1,Dev2,java\n"
	_, err := Load(strings.NewReader(csv), "test")

	var dsErr *DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
	if !strings.Contains(dsErr.Reason, "duplicate") {
		t.Fatalf("unexpected reason: %q", dsErr.Reason)
	}
}

func TestLoadKeepsRowWithMalformedExperience(t *testing.T) {
	csv := "id,title,required_skills,min_experience_years\n1,Dev,go,many\n"
	cat, err := Load(strings.NewReader(csv), "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.All()[0].MinExperienceYears != 0 {
		t.Fatalf("expected zero experience requirement, got %v", cat.All()[0].MinExperienceYears)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile("testdata/does-not-exist.csv")

	var dsErr *DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
}
