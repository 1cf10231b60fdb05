package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/bid-award/internal/auth"
	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/services"
	"github.com/senyabanana/bid-award/internal/utils"
)

// NotificationHandler serves the notification inbox.
type NotificationHandler struct {
	Service *services.NotificationService
	Timeout time.Duration
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(service *services.NotificationService, timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{Service: service, Timeout: timeout}
}

// GetNotifications handles GET /api/notifications.
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		utils.SendError(w, models.NewUnauthenticatedError("missing credentials"), "authentication failed")
		return
	}

	query := r.URL.Query()
	notifications, err := h.Service.ListNotifications(ctx, actor, query.Get("limit"), query.Get("offset"), query.Get("unread"))
	if err != nil {
		utils.SendError(w, err, "failed to get notifications")
		return
	}
	utils.SendJSON(w, http.StatusOK, notifications)
}

// MarkRead handles POST /api/notifications/{notificationId}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		utils.SendError(w, models.NewUnauthenticatedError("missing credentials"), "authentication failed")
		return
	}

	notification, err := h.Service.MarkRead(ctx, actor, r.PathValue("notificationId"))
	if err != nil {
		utils.SendError(w, err, "failed to update notification")
		return
	}
	utils.SendJSON(w, http.StatusOK, notification)
}
