package updateadvisoravailability

// Input sets either field or both. A missing field keeps its current value.
type Input struct {
	AdvisorID      string `json:"advisorId"`
	MaxStudents    *int   `json:"maxStudents,omitempty"`
	AvailableSlots *int   `json:"availableSlots,omitempty"`
}

type Output struct {
	AdvisorID       string  `json:"advisorId"`
	MaxStudents     int     `json:"maxStudents"`
	AvailableSlots  int     `json:"availableSlots"`
	CurrentLoad     int     `json:"currentLoad"`
	UtilizationRate float64 `json:"utilizationRate"`
	Indexed         bool    `json:"indexed"`
}
