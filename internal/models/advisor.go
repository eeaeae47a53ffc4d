package models

import "time"

// DefaultAdvisorCapacity applies when an advisor never set maxStudents.
const DefaultAdvisorCapacity = 5

// AdvisorProfile is the persisted advisor record. The current load is derived from
// MaxStudents and AvailableSlots.
type AdvisorProfile struct {
	ID                string    `json:"id" db:"id"`
	UserID            string    `json:"userId" db:"user_id"`
	Name              string    `json:"name" db:"name"`
	Email             string    `json:"email,omitempty" db:"email"`
	StaffNumber       string    `json:"staffNumber,omitempty" db:"staff_number"`
	Department        string    `json:"department" db:"department"`
	ResearchInterests []string  `json:"researchInterests" db:"research_interests"`
	ExpertiseAreas    []string  `json:"expertiseAreas" db:"expertise_areas"`
	MaxStudents       int       `json:"maxStudents" db:"max_students"`
	AvailableSlots    int       `json:"availableSlots" db:"available_slots"`
	Bio               string    `json:"bio,omitempty" db:"bio"`
	CompletedProfile  bool      `json:"completedProfile" db:"completed_profile"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

// CurrentLoad is the number of slots in use, never negative.
func (p AdvisorProfile) CurrentLoad() int {
	if load := p.MaxStudents - p.AvailableSlots; load > 0 {
		return load
	}
	return 0
}

// UtilizationRate is the percentage of slots in use.
func (p AdvisorProfile) UtilizationRate() float64 {
	if p.MaxStudents <= 0 {
		return 0
	}
	return float64(p.CurrentLoad()) / float64(p.MaxStudents) * 100
}

// ResearchFocus is the union of research interests and expertise areas, first occurrence wins.
func (p AdvisorProfile) ResearchFocus() []string {
	seen := make(map[string]struct{}, len(p.ResearchInterests)+len(p.ExpertiseAreas))
	focus := make([]string, 0, len(p.ResearchInterests)+len(p.ExpertiseAreas))
	for _, list := range [][]string{p.ResearchInterests, p.ExpertiseAreas} {
		for _, item := range list {
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			focus = append(focus, item)
		}
	}
	return focus
}

// ToMatchAdvisor projects the profile onto the matcher's Advisor.
func (p AdvisorProfile) ToMatchAdvisor() Advisor {
	department := p.Department
	if department == "" {
		department = DefaultAcademicField
	}
	return Advisor{
		ID:             p.ID,
		Name:           p.Name,
		Specialization: department,
		ResearchFocus:  p.ResearchFocus(),
		MaxCapacity:    p.MaxStudents,
		CurrentLoad:    p.CurrentLoad(),
	}
}
