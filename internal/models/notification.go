// internal/models/notification.go
package models

// Notification records one delivery attempt on one channel.
type Notification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipientId"`
	Channel     string `json:"channel"` // "email", "sms"
	Status      string `json:"status"`  // "sent", "failed", "disabled"
	MessageID   string `json:"messageId,omitempty"`
	Error       string `json:"error,omitempty"`
	SentAt      string `json:"sentAt,omitempty"`
}
