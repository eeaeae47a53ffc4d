package models

import "time"

// DefaultAcademicField is assigned to profiles that do not state one.
const DefaultAcademicField = "Computer Science"

// StudentProfile is the persisted student record.
type StudentProfile struct {
	ID                    string     `json:"id" db:"id"`
	UserID                string     `json:"userId" db:"user_id"`
	Name                  string     `json:"name" db:"name"`
	AcademicField         string     `json:"academicField" db:"academic_field"`
	ResearchInterests     []string   `json:"researchInterests" db:"research_interests"`
	CareerGoals           []string   `json:"careerGoals" db:"career_goals"`
	PreferredAdvisorTypes []string   `json:"preferredAdvisorTypes" db:"preferred_advisor_types"`
	YearLevel             string     `json:"yearLevel" db:"year_level"`
	CompletedProfile      bool       `json:"completedProfile" db:"completed_profile"`
	HasMatched            bool       `json:"hasMatched" db:"has_matched"`
	MatchedAdvisorID      string     `json:"matchedAdvisorId,omitempty" db:"matched_advisor_id"`
	MatchDate             *time.Time `json:"matchDate,omitempty" db:"match_date"`
	CreatedAt             time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time  `json:"updatedAt" db:"updated_at"`
}

// ToMatchStudent projects the profile onto the matcher's Student.
func (p StudentProfile) ToMatchStudent() Student {
	field := p.AcademicField
	if field == "" {
		field = DefaultAcademicField
	}
	return Student{
		ID:                p.ID,
		Name:              p.Name,
		AcademicField:     field,
		ResearchInterests: append([]string(nil), p.ResearchInterests...),
	}
}
