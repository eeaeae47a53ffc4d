package advisordashboard

import (
	"time"

	"advisor-match-workers/internal/models"
)

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Profile        Profile              `json:"profile"`
	Students       []StudentSummary     `json:"students"`
	PendingMatches []models.MatchRecord `json:"pendingMatches"`
	Statistics     Statistics           `json:"statistics"`
}

type Profile struct {
	AdvisorID         string   `json:"advisorId"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Department        string   `json:"department"`
	ResearchInterests []string `json:"researchInterests"`
	ExpertiseAreas    []string `json:"expertiseAreas"`
	Categories        []string `json:"categories"`
	Bio               string   `json:"bio"`
	AvailableSlots    int      `json:"availableSlots"`
	MaxStudents       int      `json:"maxStudents"`
	CompletedProfile  bool     `json:"completedProfile"`
}

type StudentSummary struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	AcademicField     string     `json:"academicField"`
	ResearchInterests []string   `json:"researchInterests"`
	CareerGoals       []string   `json:"careerGoals"`
	YearLevel         string     `json:"yearLevel"`
	MatchDate         *time.Time `json:"matchDate"`
}

type Statistics struct {
	TotalStudents   int `json:"totalStudents"`
	AvailableSlots  int `json:"availableSlots"`
	MaxStudents     int `json:"maxStudents"`
	UtilizationRate int `json:"utilizationRate"`
	PendingMatches  int `json:"pendingMatches"`
	AcceptedMatches int `json:"acceptedMatches"`
	RejectedMatches int `json:"rejectedMatches"`
}
