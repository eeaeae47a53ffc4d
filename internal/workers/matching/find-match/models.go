package findmatch

import "advisor-match-workers/internal/models"

// Input identifies the student by profile id or by user id.
type Input struct {
	StudentID string `json:"studentId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	DryRun    bool   `json:"dryRun,omitempty"`
}

type Output struct {
	StudentID       string                  `json:"studentId"`
	Status          string                  `json:"status"`
	AssignedAdvisor *models.AdvisorMatch    `json:"assignedAdvisor"`
	Recommendations []models.Recommendation `json:"recommendations"`
	MatchID         string                  `json:"matchId,omitempty"`
	Committed       bool                    `json:"committed"`
	Reason          string                  `json:"reason,omitempty"`
	Details         *PoolDetails            `json:"details,omitempty"`
}

// PoolDetails explains an unmatched result in terms of the advisor pool.
type PoolDetails struct {
	TotalAdvisors                  int      `json:"totalAdvisors"`
	AdvisorsWithMatchingInterests  int      `json:"advisorsWithMatchingInterests"`
	AvailableWithMatchingInterests int      `json:"availableWithMatchingInterests"`
	YourInterests                  []string `json:"yourInterests"`
}
