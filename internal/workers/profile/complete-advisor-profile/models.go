package completeadvisorprofile

type Input struct {
	UserID            string   `json:"userId"`
	Email             string   `json:"email,omitempty"`
	StaffNumber       string   `json:"staffNumber,omitempty"`
	Department        string   `json:"department,omitempty"`
	ResearchInterests []string `json:"researchInterests"`
	ExpertiseAreas    []string `json:"expertiseAreas,omitempty"`
	MaxStudents       int      `json:"maxStudents,omitempty"`
	Bio               string   `json:"bio,omitempty"`
}

type Output struct {
	AdvisorID        string   `json:"advisorId"`
	Department       string   `json:"department"`
	ResearchFocus    []string `json:"researchFocus"`
	CompletedProfile bool     `json:"completedProfile"`
	MaxStudents      int      `json:"maxStudents"`
	AvailableSlots   int      `json:"availableSlots"`
	Indexed          bool     `json:"indexed"`
}
