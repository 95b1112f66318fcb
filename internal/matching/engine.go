package matching

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/credx/credx-matcher/internal/catalog"
	"github.com/credx/credx-matcher/internal/profile"
)

// DefaultTopK bounds the returned ranking when the caller does not ask for
// a specific size.
const DefaultTopK = 10

// ErrInvalidTopK is returned for non-positive result limits.
var ErrInvalidTopK = errors.New("top_k must be greater than zero")

// Weights tunes the relative contribution of skill overlap and experience
// fit. The defaults are heuristics, not a contract; override them via
// configuration.
type Weights struct {
	Skill      float64
	Experience float64
}

func DefaultWeights() Weights {
	return Weights{Skill: 0.7, Experience: 0.3}
}

// ScoredMatch is one ranked recommendation. Job carries the full posting for
// programmatic callers; the flat fields mirror the wire response shape.
type ScoredMatch struct {
	Job           *catalog.JobPosting `json:"-"`
	JobID         string              `json:"job_id"`
	Title         string              `json:"title"`
	Score         float64             `json:"score"`
	MatchedSkills []string            `json:"matched_skills"`
	Explanation   string              `json:"explanation"`
}

// Engine ranks catalog entries against a normalized profile. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	weights Weights
	logger  *zap.Logger
}

func NewEngine(weights Weights, logger *zap.Logger) *Engine {
	if weights.Skill <= 0 && weights.Experience <= 0 {
		weights = DefaultWeights()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{weights: weights, logger: logger}
}

// Recommend scores every posting in the catalog against the profile and
// returns at most topK matches, ordered by non-increasing score with ties
// broken by ascending job id. Ids are compared as strings, so purely numeric
// ids order lexicographically ("10" before "2") unless zero-padded.
// Postings with zero skill overlap are excluded regardless of experience fit.
func (e *Engine) Recommend(p *profile.CandidateProfile, cat *catalog.Catalog, topK int) (*Recommendations, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}
	if p == nil {
		return nil, errors.New("profile is required")
	}
	if cat == nil {
		return nil, errors.New("catalog is required")
	}

	if len(p.Skills) == 0 {
		e.logger.Info("profile has no skills, nothing to rank")
		return &Recommendations{
			Items:    []*ScoredMatch{},
			Advisory: "profile contains no recognizable skills; add skills to receive recommendations",
		}, nil
	}

	profileSkills := make(map[string]struct{}, len(p.Skills))
	for _, skill := range p.Skills {
		profileSkills[skill] = struct{}{}
	}

	matches := make([]*ScoredMatch, 0, cat.Len())
	for _, job := range cat.All() {
		matched := intersect(profileSkills, job.RequiredSkills)
		if len(matched) == 0 {
			// Zero-relevance filter: no overlap means the posting is
			// excluded no matter how well the experience fits.
			continue
		}

		overlap := float64(len(matched)) / float64(max(1, len(job.RequiredSkills)))
		expFit := experienceFit(p.YearsExperience, job.MinExperienceYears)
		score := clamp01(e.weights.Skill*overlap + e.weights.Experience*expFit)

		matches = append(matches, &ScoredMatch{
			Job:           job,
			JobID:         job.ID,
			Title:         job.Title,
			Score:         score,
			MatchedSkills: matched,
			Explanation:   explain(matched, job, expFit),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].JobID < matches[j].JobID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}

	e.logger.Debug("ranking completed",
		zap.Int("catalog_size", cat.Len()),
		zap.Int("matches", len(matches)),
		zap.Int("top_k", topK),
	)

	return &Recommendations{Items: matches}, nil
}

func intersect(profileSkills map[string]struct{}, required []string) []string {
	matched := make([]string, 0, len(required))
	for _, skill := range required {
		if _, ok := profileSkills[skill]; ok {
			matched = append(matched, skill)
		}
	}
	return matched
}

// experienceFit is 1.0 when the profile meets the requirement, decays
// linearly with the deficit otherwise, and never penalizes postings without
// an experience requirement.
func experienceFit(years, required float64) float64 {
	if required <= 0 || years >= required {
		return 1.0
	}
	deficit := required - years
	fit := 1.0 - deficit/required
	if fit < 0 {
		return 0
	}
	return fit
}

func explain(matched []string, job *catalog.JobPosting, expFit float64) string {
	return fmt.Sprintf("matched %d of %d required skills (%s); experience fit %.0f%%",
		len(matched), len(job.RequiredSkills), strings.Join(matched, ", "), expFit*100)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
