package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/repository"
	"github.com/senyabanana/bid-award/internal/utils"
)

// NotificationService serves the notification inbox.
type NotificationService struct {
	Repo repository.NotificationRepository
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(repo repository.NotificationRepository) *NotificationService {
	return &NotificationService{Repo: repo}
}

// ListNotifications returns the actor's notifications, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, actor *models.Actor, limitStr, offsetStr, unreadStr string) ([]models.Notification, error) {
	if actor == nil {
		return nil, models.NewUnauthenticatedError("missing credentials")
	}
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewBadRequestError(err.Error())
	}
	unreadOnly := false
	if unreadStr != "" {
		if unreadOnly, err = strconv.ParseBool(unreadStr); err != nil {
			return nil, models.NewBadRequestError("invalid unread parameter, must be a boolean")
		}
	}

	notifications, err := s.Repo.ListNotifications(ctx, actor.UserID, unreadOnly, limit, offset)
	if err != nil {
		return nil, models.NewTransientError("failed to list notifications", err)
	}
	return notifications, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor *models.Actor, notificationID string) (*models.Notification, error) {
	if actor == nil {
		return nil, models.NewUnauthenticatedError("missing credentials")
	}
	if notificationID == "" {
		return nil, models.NewBadRequestError("notificationId is required")
	}

	notification, err := s.Repo.MarkNotificationRead(ctx, notificationID, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewNotFoundError("notification not found")
		}
		return nil, models.NewTransientError("failed to update notification", err)
	}
	return notification, nil
}
