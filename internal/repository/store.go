package repository

import (
	"context"
	"errors"

	"github.com/senyabanana/bid-award/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotApplied is returned when a conditional update matched zero rows.
	ErrNotApplied = errors.New("conditional update not applied")
)

// AwardTx is the set of operations available inside one award unit of work.
// Every method runs inside the same transaction; nothing is visible to other
// callers until the unit commits.
type AwardTx interface {
	// GetBidWithProject loads a bid and its parent project.
	GetBidWithProject(ctx context.Context, bidID string) (*models.Bid, *models.Project, error)
	// CompareAndSetProjectStatus flips the project status only if it is owned by
	// ownerID and currently in from. Returns ErrNotApplied when no row matched.
	CompareAndSetProjectStatus(ctx context.Context, projectID, ownerID string, from, to models.ProjectStatus, awardedBidID string) (*models.Project, error)
	// SetBidStatus updates one bid of projectID if its status is one of from.
	// Returns ErrNotApplied when no row matched.
	SetBidStatus(ctx context.Context, bidID, projectID string, from []models.BidStatus, to models.BidStatus) (*models.Bid, error)
	// BulkSetBidStatus updates every bid of projectID except exceptBidID whose
	// status is one of from, returning the updated bids.
	BulkSetBidStatus(ctx context.Context, projectID, exceptBidID string, from []models.BidStatus, to models.BidStatus) ([]models.Bid, error)
	// InsertNotifications inserts all notifications in one statement.
	InsertNotifications(ctx context.Context, notifications []models.Notification) error
}

// AwardStore runs award units of work atomically.
type AwardStore interface {
	// WithinAwardTx runs fn in a single all-or-nothing transaction. If fn
	// returns an error, or ctx ends before commit, everything is rolled back.
	WithinAwardTx(ctx context.Context, fn func(ctx context.Context, tx AwardTx) error) error
}

// NotificationRepository reads and updates durable notifications.
type NotificationRepository interface {
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string) (*models.Notification, error)
}

// UserRepository looks up accounts for login.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store is everything the service layer needs from persistence.
type Store interface {
	AwardStore
	NotificationRepository
	UserRepository
}
