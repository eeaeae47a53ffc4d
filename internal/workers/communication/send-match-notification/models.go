package sendmatchnotification

import "advisor-match-workers/internal/models"

type Input struct {
	MatchID string `json:"matchId"`
	// StudentPhone enables an SMS to the student when SMS is configured.
	StudentPhone string `json:"studentPhone,omitempty"`
}

type Output struct {
	MatchID       string                `json:"matchId"`
	Notifications []models.Notification `json:"notifications"`
	Sent          int                   `json:"sent"`
	Failed        int                   `json:"failed"`
}

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
)
