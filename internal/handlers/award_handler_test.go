package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/senyabanana/bid-award/internal/auth"
	"github.com/senyabanana/bid-award/internal/models"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAwardBidHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAwardServiceInterface(ctrl)
	handler := NewAwardHandler(mockService, time.Second)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/bids/{bidId}/award", handler.AwardBid)

	actor := &models.Actor{UserID: "c1", Role: models.Contractor}
	awardedBidID := "b1"

	tests := []struct {
		name           string
		withActor      bool
		mockSetup      func()
		expectedStatus int
		validate       func(t *testing.T, body map[string]any)
	}{
		{
			name:      "success",
			withActor: true,
			mockSetup: func() {
				mockService.EXPECT().
					AwardBid(gomock.Any(), "b1", actor).
					Return(&models.AwardResult{
						Bid: models.Bid{
							ID:              "b1",
							ProjectID:       "p1",
							SubcontractorID: "s1",
							TotalAmount:     decimal.RequireFromString("10000.50"),
							Status:          models.AwardedBid,
						},
						Project: models.Project{
							ID:           "p1",
							Title:        "Roof",
							Status:       models.AwardedProject,
							CreatedBy:    "c1",
							AwardedBidID: &awardedBidID,
						},
						NotificationsCreated: 3,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, body map[string]any) {
				bid := body["bid"].(map[string]any)
				require.Equal(t, "10000.5", bid["totalAmount"])
				require.Equal(t, "AWARDED", bid["status"])
				project := body["project"].(map[string]any)
				require.Equal(t, "AWARDED", project["status"])
				require.Equal(t, "b1", project["awardedBidId"])
				require.Equal(t, 3.0, body["notificationsCreated"])
				require.NotContains(t, body, "Notifications")
			},
		},
		{
			name:           "missing_actor",
			withActor:      false,
			mockSetup:      func() {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:      "conflict",
			withActor: true,
			mockSetup: func() {
				mockService.EXPECT().AwardBid(gomock.Any(), "b1", actor).
					Return(nil, models.NewConflictError("project is not open for award"))
			},
			expectedStatus: http.StatusConflict,
			validate: func(t *testing.T, body map[string]any) {
				require.Equal(t, "project is not open for award", body["reason"])
			},
		},
		{
			name:      "forbidden",
			withActor: true,
			mockSetup: func() {
				mockService.EXPECT().AwardBid(gomock.Any(), "b1", actor).
					Return(nil, models.NewForbiddenError("only the project owner can award a bid"))
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:      "not_found",
			withActor: true,
			mockSetup: func() {
				mockService.EXPECT().AwardBid(gomock.Any(), "b1", actor).
					Return(nil, models.NewNotFoundError("bid not found"))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:      "transient_hides_cause",
			withActor: true,
			mockSetup: func() {
				mockService.EXPECT().AwardBid(gomock.Any(), "b1", actor).
					Return(nil, models.NewTransientError("award could not be completed, retry later", errors.New("pg: connection reset")))
			},
			expectedStatus: http.StatusInternalServerError,
			validate: func(t *testing.T, body map[string]any) {
				require.Equal(t, "failed to award bid", body["reason"])
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/api/bids/b1/award", nil)
			if tc.withActor {
				req = req.WithContext(auth.WithActor(req.Context(), actor))
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
			if tc.validate != nil {
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				tc.validate(t, body)
			}
		})
	}
}
