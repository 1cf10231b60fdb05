package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/bid-award/internal/auth"
	"github.com/senyabanana/bid-award/internal/metrics"
	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/repository"
	"github.com/senyabanana/bid-award/internal/utils"

	"github.com/google/uuid"
)

const loserMessage = "Another contractor was selected for this project."

// Enqueuer accepts committed notifications for real-time delivery.
type Enqueuer interface {
	Enqueue(notifications []models.Notification) int
}

// AwardService selects the winning bid of a project.
type AwardService struct {
	Store      repository.AwardStore
	Dispatcher Enqueuer
	Metrics    *metrics.Metrics
	Timeout    time.Duration

	now   func() time.Time
	newID func() string
}

// NewAwardService creates an AwardService.
func NewAwardService(store repository.AwardStore, dispatcher Enqueuer, m *metrics.Metrics, timeout time.Duration) *AwardService {
	return &AwardService{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    m,
		Timeout:    timeout,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// AwardBid awards bidID on behalf of actor. The project flip, the bid
// updates and the notification rows commit together or not at all.
// Notifications are handed to the dispatcher only after commit.
func (s *AwardService) AwardBid(ctx context.Context, bidID string, actor *models.Actor) (*models.AwardResult, error) {
	started := time.Now()

	result, err := s.award(ctx, bidID, actor)
	s.Metrics.ObserveAward(outcomeOf(err), time.Since(started))
	if err != nil {
		fields := map[string]any{"bid_id": bidID, "error": err.Error()}
		if actor != nil {
			fields["user_id"] = actor.UserID
		}
		if errors.Is(err, models.ErrTransient) {
			utils.Error("award failed", fields)
		} else {
			utils.Info("award rejected", fields)
		}
		return nil, err
	}

	queued := 0
	if s.Dispatcher != nil {
		queued = s.Dispatcher.Enqueue(result.Notifications)
	}
	utils.Info("bid awarded", map[string]any{
		"bid_id":        result.Bid.ID,
		"project_id":    result.Project.ID,
		"user_id":       actor.UserID,
		"declined":      len(result.DeclinedBids),
		"notifications": result.NotificationsCreated,
		"queued":        queued,
	})
	return result, nil
}

func (s *AwardService) award(ctx context.Context, bidID string, actor *models.Actor) (*models.AwardResult, error) {
	if err := auth.RequireRole(actor, models.Contractor); err != nil {
		return nil, err
	}
	if bidID == "" {
		return nil, models.NewBadRequestError("bidId is required")
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var result *models.AwardResult
	err := s.Store.WithinAwardTx(ctx, func(ctx context.Context, tx repository.AwardTx) error {
		bid, project, err := tx.GetBidWithProject(ctx, bidID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return models.NewNotFoundError("bid not found")
			}
			return fmt.Errorf("load bid %s: %w", bidID, err)
		}
		if project.CreatedBy != actor.UserID {
			return models.NewForbiddenError("only the project owner can award a bid")
		}

		awardedProject, err := tx.CompareAndSetProjectStatus(ctx, project.ID, actor.UserID, models.PublishedProject, models.AwardedProject, bid.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotApplied) {
				return models.NewConflictError("project is not open for award")
			}
			return fmt.Errorf("award project %s: %w", project.ID, err)
		}

		awardedBid, err := tx.SetBidStatus(ctx, bid.ID, project.ID, models.AwardableBidStatuses, models.AwardedBid)
		if err != nil {
			if errors.Is(err, repository.ErrNotApplied) {
				return models.NewConflictError("bid is not in an awardable state")
			}
			return fmt.Errorf("award bid %s: %w", bid.ID, err)
		}

		declined, err := tx.BulkSetBidStatus(ctx, project.ID, bid.ID, models.DeclinableBidStatuses, models.DeclinedBid)
		if err != nil {
			return fmt.Errorf("decline bids of project %s: %w", project.ID, err)
		}

		notifications := s.buildNotifications(awardedProject, awardedBid, declined)
		if err := tx.InsertNotifications(ctx, notifications); err != nil {
			return fmt.Errorf("insert notifications: %w", err)
		}

		result = &models.AwardResult{
			Bid:                  *awardedBid,
			Project:              *awardedProject,
			DeclinedBids:         declined,
			Notifications:        notifications,
			NotificationsCreated: len(notifications),
		}
		return nil
	})
	if err != nil {
		var errorResponse *models.ErrorResponse
		if errors.As(err, &errorResponse) {
			return nil, errorResponse
		}
		return nil, models.NewTransientError("award could not be completed, retry later", err)
	}
	return result, nil
}

// buildNotifications addresses the winner and every other bidder once.
func (s *AwardService) buildNotifications(project *models.Project, winner *models.Bid, declined []models.Bid) []models.Notification {
	now := s.now()
	link := fmt.Sprintf("/projects/%s/bids/%s", project.ID, winner.ID)

	notifications := []models.Notification{{
		ID:        s.newID(),
		UserID:    winner.SubcontractorID,
		Type:      models.BidAwardedNotification,
		Title:     "Bid awarded: " + project.Title,
		Message:   fmt.Sprintf("Congratulations! Your bid on %q has been awarded.", project.Title),
		Link:      &link,
		CreatedAt: now,
	}}

	seen := map[string]bool{winner.SubcontractorID: true}
	for _, bid := range declined {
		if seen[bid.SubcontractorID] {
			continue
		}
		seen[bid.SubcontractorID] = true
		notifications = append(notifications, models.Notification{
			ID:        s.newID(),
			UserID:    bid.SubcontractorID,
			Type:      models.BidAwardedNotification,
			Title:     "Bid not selected: " + project.Title,
			Message:   loserMessage,
			CreatedAt: now,
		})
	}
	return notifications
}

func outcomeOf(err error) string {
	if err == nil {
		return "awarded"
	}
	switch models.KindOf(err) {
	case models.KindConflict:
		return "conflict"
	case models.KindForbidden:
		return "forbidden"
	case models.KindNotFound:
		return "not_found"
	case models.KindUnauthenticated:
		return "unauthenticated"
	case models.KindBadRequest:
		return "bad_request"
	default:
		return "transient"
	}
}
