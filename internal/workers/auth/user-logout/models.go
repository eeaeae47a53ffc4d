package userlogout

import "time"

type Input struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId,omitempty"`
	LogoutAll bool   `json:"logoutAll,omitempty"`
}

type Output struct {
	Success             bool      `json:"success"`
	Message             string    `json:"message"`
	SessionsInvalidated int       `json:"sessionsInvalidated"`
	LogoutAt            time.Time `json:"logoutAt"`
}
