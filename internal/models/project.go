package models

import "time"

type ProjectStatus string // Lifecycle status of a project

const (
	DraftProject     ProjectStatus = "DRAFT"     // Project is being prepared
	PublishedProject ProjectStatus = "PUBLISHED" // Project accepts bids
	ClosedProject    ProjectStatus = "CLOSED"    // Bidding closed without an award
	AwardedProject   ProjectStatus = "AWARDED"   // A winning bid was selected
	CancelledProject ProjectStatus = "CANCELLED" // Project was withdrawn by its owner
)

// Project represents a contractor's published piece of work.
type Project struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Status       ProjectStatus `json:"status"`
	CreatedBy    string        `json:"createdBy"`
	Deadline     *time.Time    `json:"deadline,omitempty"`
	AwardedBidID *string       `json:"awardedBidId,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
