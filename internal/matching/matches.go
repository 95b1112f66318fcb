package matching

import (
	"encoding/json"
	"os"
)

// Recommendations wraps the ranked matches together with an advisory the
// caller may surface. Advisory is informational only; an empty result with
// an advisory is still a success.
type Recommendations struct {
	Items    []*ScoredMatch `json:"items"`
	Advisory string         `json:"advisory,omitempty"`
}

func (r *Recommendations) Len() int {
	return len(r.Items)
}

// DumpToTmpFile writes the ranked matches to a temporary JSON file and
// returns its name.
func (r *Recommendations) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matches_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByLocation groups the ranked matches by posting location.
func (r *Recommendations) ReportByLocation() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, match := range r.Items {
		location := match.Job.Location
		if location == "" {
			location = "unspecified"
		}
		report[location] = append(report[location], map[string]string{
			"job_id":      match.JobID,
			"title":       match.Title,
			"score":       formatScore(match.Score),
			"explanation": match.Explanation,
		})
	}
	return report
}

func formatScore(score float64) string {
	data, _ := json.Marshal(score)
	return string(data)
}
