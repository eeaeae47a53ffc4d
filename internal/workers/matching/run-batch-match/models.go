package runbatchmatch

import "advisor-match-workers/internal/models"

// Input selects the source of the run. When Students or Advisors are supplied the
// run is evaluated in memory only and nothing is persisted.
type Input struct {
	Limit    int              `json:"limit,omitempty"`
	DryRun   bool             `json:"dryRun,omitempty"`
	Students []models.Student `json:"students,omitempty"`
	Advisors []models.Advisor `json:"advisors,omitempty"`
}

type Output struct {
	Results       []models.MatchResult `json:"results"`
	TotalStudents int                  `json:"totalStudents"`
	Matched       int                  `json:"matched"`
	Unmatched     int                  `json:"unmatched"`
	Committed     int                  `json:"committed"`
	Conflicts     []Conflict           `json:"conflicts"`
	MatchIDs      []string             `json:"matchIds"`
	Source        string               `json:"source"`
	DryRun        bool                 `json:"dryRun"`
}

// Conflict is a Strong Match whose commit was refused by the database.
type Conflict struct {
	StudentID string `json:"studentId"`
	AdvisorID string `json:"advisorId"`
	Code      string `json:"code"`
}

const (
	SourceJob      = "job"
	SourcePostgres = "postgres"
)
