package auth

import (
	"net/http"

	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/utils"
)

// Middleware authenticates the request and, when roles are given, requires one of them.
func Middleware(m *Manager, roles ...models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := m.Authenticate(r.Context(), utils.BearerToken(r))
			if err != nil {
				utils.SendError(w, err, "authentication failed")
				return
			}
			if len(roles) > 0 {
				if err := RequireRole(actor, roles...); err != nil {
					utils.SendError(w, err, "authorization failed")
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
