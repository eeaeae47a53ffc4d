package models

import "time"

// MatchStatus is the review state of a persisted match.
type MatchStatus string

const (
	MatchPending  MatchStatus = "pending"
	MatchAccepted MatchStatus = "accepted"
	MatchRejected MatchStatus = "rejected"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchPending, MatchAccepted, MatchRejected:
		return true
	}
	return false
}

// MatchRecord is a committed student/advisor assignment awaiting or past review.
type MatchRecord struct {
	ID         string      `json:"id" db:"id"`
	StudentID  string      `json:"studentId" db:"student_id"`
	AdvisorID  string      `json:"advisorId" db:"advisor_id"`
	Reason     string      `json:"reason" db:"match_reason"`
	Score      Percentage  `json:"matchScore" db:"match_score"`
	Status     MatchStatus `json:"status" db:"status"`
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
	ReviewedAt *time.Time  `json:"reviewedAt,omitempty" db:"reviewed_at"`
}
