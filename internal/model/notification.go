package model

import "time"

// AlertKind distinguishes the two scheduled alerts a running timer may own.
type AlertKind string

const (
	AlertHalfway  AlertKind = "halfway"
	AlertComplete AlertKind = "complete"
)

// Notification is a delivered alert, kept in the local inbox so the user can
// see what fired while the terminal was unattended.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// TimerID links this notification to the timer that scheduled it.
	TimerID string `json:"timer_id" db:"timer_id"`

	Kind AlertKind `json:"kind" db:"kind"`

	Title   string `json:"title" db:"title"`
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when the alert was delivered.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
