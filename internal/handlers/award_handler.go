package handlers

//go:generate mockgen -source=award_handler.go -destination=mock_award_service.go -package=handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/senyabanana/bid-award/internal/auth"
	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/utils"
)

// AwardServiceInterface is the award engine as seen by the HTTP layer.
type AwardServiceInterface interface {
	AwardBid(ctx context.Context, bidID string, actor *models.Actor) (*models.AwardResult, error)
}

// AwardHandler serves the award endpoint.
type AwardHandler struct {
	Service AwardServiceInterface
	Timeout time.Duration
}

// NewAwardHandler creates an AwardHandler.
func NewAwardHandler(service AwardServiceInterface, timeout time.Duration) *AwardHandler {
	return &AwardHandler{Service: service, Timeout: timeout}
}

// AwardBid handles POST /api/bids/{bidId}/award.
func (h *AwardHandler) AwardBid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		utils.SendError(w, models.NewUnauthenticatedError("missing credentials"), "authentication failed")
		return
	}

	result, err := h.Service.AwardBid(ctx, r.PathValue("bidId"), actor)
	if err != nil {
		utils.SendError(w, err, "failed to award bid")
		return
	}
	utils.SendJSON(w, http.StatusOK, result)
}
