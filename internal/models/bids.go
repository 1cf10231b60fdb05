package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BidStatus string // Status of a bid

const (
	DraftBid       BidStatus = "DRAFT"        // Bid is being prepared by the subcontractor
	SubmittedBid   BidStatus = "SUBMITTED"    // Bid was sent to the contractor
	UnderReviewBid BidStatus = "UNDER_REVIEW" // Contractor is reviewing the bid
	AwardedBid     BidStatus = "AWARDED"      // Bid won the project
	DeclinedBid    BidStatus = "DECLINED"     // Another bid won the project
	WithdrawnBid   BidStatus = "WITHDRAWN"    // Subcontractor withdrew the bid
)

var (
	// AwardableBidStatuses lists the statuses a bid may be awarded from.
	AwardableBidStatuses = []BidStatus{SubmittedBid, UnderReviewBid}

	// DeclinableBidStatuses lists the statuses that are declined when a competing bid wins.
	DeclinableBidStatuses = []BidStatus{SubmittedBid, UnderReviewBid, DraftBid}
)

// In reports whether s is one of statuses.
func (s BidStatus) In(statuses []BidStatus) bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Bid represents a subcontractor's offer on a project.
type Bid struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"projectId"`
	SubcontractorID string          `json:"subcontractorId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          BidStatus       `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// AwardResult is the outcome of a successful award.
type AwardResult struct {
	Bid                  Bid            `json:"bid"`
	Project              Project        `json:"project"`
	DeclinedBids         []Bid          `json:"-"`
	Notifications        []Notification `json:"-"`
	NotificationsCreated int            `json:"notificationsCreated"`
}
