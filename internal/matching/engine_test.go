package matching

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/credx/credx-matcher/internal/catalog"
	"github.com/credx/credx-matcher/internal/profile"
)

func loadCatalog(t *testing.T, csv string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(csv), "test")
	if err != nil {
		t.Fatalf("loading test catalog: %v", err)
	}
	return cat
}

func TestRecommendWeightedScoring(t *testing.T) {
	cat := loadCatalog(t, `id,title,required_skills,min_experience_years
1,Data Engineer,"python,sql",3
2,Java Developer,java,0
`)
	p := profile.Normalize(map[string]any{"skills": "python", "years_experience": 1})

	recs, err := NewEngine(DefaultWeights(), nil).Recommend(p, cat, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if recs.Len() != 1 {
		t.Fatalf("expected 1 match, got %d", recs.Len())
	}

	match := recs.Items[0]
	if match.JobID != "1" {
		t.Fatalf("expected job 1, got %s", match.JobID)
	}

	// overlap 1/2, experience fit 1 - 2/3.
	expected := 0.7*0.5 + 0.3*(1.0/3.0)
	if math.Abs(match.Score-expected) > 1e-9 {
		t.Fatalf("expected score %v, got %v", expected, match.Score)
	}
	if !reflect.DeepEqual(match.MatchedSkills, []string{"python"}) {
		t.Fatalf("unexpected matched skills: %v", match.MatchedSkills)
	}
	if match.Explanation == "" {
		t.Fatalf("expected explanation to be populated")
	}
}

func TestRecommendExcludesZeroOverlap(t *testing.T) {
	cat := loadCatalog(t, `id,title,required_skills,min_experience_years
1,Java Developer,java,0
`)
	p := profile.Normalize(map[string]any{"skills": "python", "years_experience": 10})

	recs, err := NewEngine(DefaultWeights(), nil).Recommend(p, cat, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.Len() != 0 {
		t.Fatalf("expected zero-overlap posting to be excluded, got %d matches", recs.Len())
	}
}

func TestRecommendOrderingAndTieBreak(t *testing.T) {
	cat := loadCatalog(t, `id,title,required_skills,min_experience_years
3,Role C,go,0
1,Role A,go,0
2,Role B,"go,rust",0
`)
	p := profile.Normalize(map[string]any{"skills": "go", "years_experience": 5})

	recs, err := NewEngine(DefaultWeights(), nil).Recommend(p, cat, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := make([]string, 0, recs.Len())
	for _, match := range recs.Items {
		ids = append(ids, match.JobID)
	}
	// Roles A and C score identically (full overlap) and beat role B
	// (half overlap); the tie resolves by ascending id.
	if !reflect.DeepEqual(ids, []string{"1", "3", "2"}) {
		t.Fatalf("unexpected order: %v", ids)
	}

	for i := 1; i < recs.Len(); i++ {
		if recs.Items[i].Score > recs.Items[i-1].Score {
			t.Fatalf("scores not non-increasing: %v then %v", recs.Items[i-1].Score, recs.Items[i].Score)
		}
	}
}

func TestRecommendTruncatesToTopK(t *testing.T) {
	cat := loadCatalog(t, `id,title,required_skills,min_experience_years
1,Role A,go,0
2,Role B,go,0
3,Role C,go,0
`)
	p := profile.Normalize(map[string]any{"skills": "go", "years_experience": 2})

	recs, err := NewEngine(DefaultWeights(), nil).Recommend(p, cat, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.Len() != 2 {
		t.Fatalf("expected 2 matches, got %d", recs.Len())
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	p := profile.Normalize(map[string]any{"skills": "go", "years_experience": 2})

	recs, err := NewEngine(DefaultWeights(), nil).Recommend(p, catalog.New("empty"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.Len() != 0 {
		t.Fatalf("expected empty result, got %d", recs.Len())
	}
}

func TestRecommendRejectsInvalidTopK(t *testing.T) {
	cat := loadCatalog(t, "id,title,required_skills\n1,Role,go\n")
	p := profile.Normalize(map[string]any{"skills": "go"})

	for _, topK := range []int{0, -1} {
		if _, err := NewEngine(DefaultWeights(), nil).Recommend(p, cat, topK); !errors.Is(err, ErrInvalidTopK) {
			t.Fatalf("expected ErrInvalidTopK for %d, got %v", topK, err)
		}
	}
}

func TestRecommendEmptySkillsReturnsAdvisory(t *testing.T) {
	cat := loadCatalog(t, "id,title,required_skills\n1,Role,go\n")
	p := profile.Normalize(map[string]any{"years_experience": 5})

	recs, err := NewEngine(DefaultWeights(), nil).Recommend(p, cat, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recs.Len() != 0 {
		t.Fatalf("expected no matches, got %d", recs.Len())
	}
	if recs.Advisory == "" {
		t.Fatalf("expected advisory for empty skills")
	}
}

func TestExperienceFit(t *testing.T) {
	cases := []struct {
		name     string
		years    float64
		required float64
		want     float64
	}{
		{"meets-requirement", 5, 3, 1.0},
		{"no-requirement", 0, 0, 1.0},
		{"partial-deficit", 1, 3, 1.0 - 2.0/3.0},
		{"total-deficit", 0, 3, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := experienceFit(tc.years, tc.required)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestReportByLocation(t *testing.T) {
	cat := loadCatalog(t, `id,title,required_skills,min_experience_years,location
1,Role A,go,0,Berlin
2,Role B,go,0,
`)
	p := profile.Normalize(map[string]any{"skills": "go", "years_experience": 2})

	recs, err := NewEngine(DefaultWeights(), nil).Recommend(p, cat, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := recs.ReportByLocation()
	if len(report["Berlin"]) != 1 {
		t.Fatalf("expected one Berlin entry: %v", report)
	}
	if len(report["unspecified"]) != 1 {
		t.Fatalf("expected one unspecified entry: %v", report)
	}
}
