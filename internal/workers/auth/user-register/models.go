package userregister

import "time"

type Input struct {
	Name        string `json:"name"`
	Identifier  string `json:"identifier"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	MaxStudents int    `json:"maxStudents,omitempty"`
}

type Output struct {
	UserID           string    `json:"userId"`
	ProfileID        string    `json:"profileId"`
	Role             string    `json:"role"`
	SessionID        string    `json:"sessionId"`
	SessionExpiresAt time.Time `json:"sessionExpiresAt"`
	CompletedProfile bool      `json:"completedProfile"`
}
