package models

import "time"

// Event is a hosted event with a payment flag
type Event struct {
	EventID    string    `json:"eventId"`
	HostUserID string    `json:"hostUserId"`
	Title      string    `json:"title,omitempty"`
	Paid       bool      `json:"paid"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Registration joins a user to an event
type Registration struct {
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
