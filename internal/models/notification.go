package models

import "time"

type NotificationType string // Kind of notification shown to a user

const (
	BidAwardedNotification NotificationType = "BID_AWARDED"
)

// Notification represents a durable message addressed to one user.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      *string          `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
