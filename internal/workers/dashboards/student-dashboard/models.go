package studentdashboard

import (
	"time"

	"advisor-match-workers/internal/models"
)

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Profile         Profile                 `json:"profile"`
	MatchStatus     MatchStatus             `json:"matchStatus"`
	Matches         []models.MatchRecord    `json:"matches"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Statistics      Statistics              `json:"statistics"`
}

type Profile struct {
	StudentID             string    `json:"studentId"`
	Name                  string    `json:"name"`
	AcademicField         string    `json:"academicField"`
	ResearchInterests     []string  `json:"researchInterests"`
	InterestCategories    []string  `json:"interestCategories"`
	CareerGoals           []string  `json:"careerGoals"`
	PreferredAdvisorTypes []string  `json:"preferredAdvisorTypes"`
	YearLevel             string    `json:"yearLevel"`
	CompletedProfile      bool      `json:"completedProfile"`
	ProfileCompletedAt    time.Time `json:"profileCompletedAt"`
}

type MatchStatus struct {
	HasMatched     bool            `json:"hasMatched"`
	MatchDate      *time.Time      `json:"matchDate"`
	MatchedAdvisor *AdvisorSummary `json:"matchedAdvisor"`
	CanFindMatch   bool            `json:"canFindMatch"`
}

type AdvisorSummary struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Department    string   `json:"department"`
	ResearchAreas []string `json:"researchAreas"`
}

type Statistics struct {
	TotalAdvisors      int `json:"totalAdvisors"`
	AvailableAdvisors  int `json:"availableAdvisors"`
	CompatibleAdvisors int `json:"compatibleAdvisors"`
	TotalMatches       int `json:"totalMatches"`
	PendingMatches     int `json:"pendingMatches"`
	YourInterests      int `json:"yourInterests"`
	YourGoals          int `json:"yourGoals"`
}
