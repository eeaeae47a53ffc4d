package userlogin

import "time"

type Input struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	// Role, when set, must match the account's role.
	Role string `json:"role,omitempty"`
}

type Output struct {
	UserID           string    `json:"userId"`
	Name             string    `json:"name"`
	Role             string    `json:"role"`
	ProfileID        string    `json:"profileId"`
	CompletedProfile bool      `json:"completedProfile"`
	SessionID        string    `json:"sessionId"`
	SessionExpiresAt time.Time `json:"sessionExpiresAt"`
}
