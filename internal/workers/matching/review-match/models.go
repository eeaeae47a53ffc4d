package reviewmatch

const (
	DecisionAccept = "accept"
	DecisionReject = "reject"
)

type Input struct {
	MatchID   string `json:"matchId"`
	AdvisorID string `json:"advisorId"`
	Decision  string `json:"decision"`
}

type Output struct {
	MatchID        string `json:"matchId"`
	StudentID      string `json:"studentId"`
	AdvisorID      string `json:"advisorId"`
	Status         string `json:"status"`
	ReviewedAt     string `json:"reviewedAt"`
	SlotReleased   bool   `json:"slotReleased"`
	AvailableSlots *int   `json:"availableSlots,omitempty"`
}
