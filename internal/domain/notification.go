package domain

import "time"

// Severity of a user-visible notification.
type Severity string

const (
	SeverityNormal      Severity = "normal"
	SeverityDestructive Severity = "destructive"
)

// Notification is the title/description/severity triple shown to the user.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	AttemptID   string    `json:"attempt_id,omitempty"`
	At          time.Time `json:"at"`
}
