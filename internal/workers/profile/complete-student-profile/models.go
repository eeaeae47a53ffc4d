package completestudentprofile

type Input struct {
	UserID                string   `json:"userId"`
	AcademicField         string   `json:"academicField,omitempty"`
	ResearchInterests     []string `json:"researchInterests"`
	CareerGoals           []string `json:"careerGoals,omitempty"`
	PreferredAdvisorTypes []string `json:"preferredAdvisorTypes,omitempty"`
	YearLevel             string   `json:"yearLevel,omitempty"`
}

type Output struct {
	StudentID          string   `json:"studentId"`
	AcademicField      string   `json:"academicField"`
	ResearchInterests  []string `json:"researchInterests"`
	InterestCategories []string `json:"interestCategories"`
	CompletedProfile   bool     `json:"completedProfile"`
	ReadyForMatching   bool     `json:"readyForMatching"`
}
