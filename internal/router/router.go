package router

import (
	"net/http"

	"github.com/senyabanana/bid-award/internal/auth"
	"github.com/senyabanana/bid-award/internal/handlers"
	"github.com/senyabanana/bid-award/internal/metrics"
	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/ratelimit"
)

// Deps groups everything the routes need.
type Deps struct {
	AwardHandler        *handlers.AwardHandler
	AuthHandler         *handlers.AuthHandler
	NotificationHandler *handlers.NotificationHandler

	Tokens      *auth.Manager
	Limiter     *ratelimit.Limiter
	AwardPolicy ratelimit.Policy
	KeyFunc     ratelimit.KeyFunc
	Metrics     *metrics.Metrics
}

// InitRoutes registers every endpoint and wraps the mux in the request logger.
func InitRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	authenticated := auth.Middleware(d.Tokens)
	contractorOnly := auth.Middleware(d.Tokens, models.Contractor)
	awardLimit := ratelimit.Middleware(d.Limiter, d.AwardPolicy, d.KeyFunc)

	mux.HandleFunc("/api/ping", handlers.PingHandler)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}

	// login counts attempts itself so a success can clear the counter
	mux.HandleFunc("POST /api/auth/login", d.AuthHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", d.AuthHandler.Logout)

	mux.Handle("POST /api/bids/{bidId}/award",
		awardLimit(contractorOnly(http.HandlerFunc(d.AwardHandler.AwardBid))))

	mux.Handle("GET /api/notifications", authenticated(http.HandlerFunc(d.NotificationHandler.GetNotifications)))
	mux.Handle("POST /api/notifications/{notificationId}/read", authenticated(http.HandlerFunc(d.NotificationHandler.MarkRead)))

	return RequestLogger(mux)
}
