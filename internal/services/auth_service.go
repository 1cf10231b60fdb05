package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/senyabanana/bid-award/internal/auth"
	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/ratelimit"
	"github.com/senyabanana/bid-award/internal/repository"
	"github.com/senyabanana/bid-award/internal/utils"
)

const invalidCredentials = "invalid email or password"

// AuthService logs users in and out.
type AuthService struct {
	Users   repository.UserRepository
	Tokens  *auth.Manager
	Limiter *ratelimit.Limiter
	Policy  ratelimit.Policy
}

// NewAuthService creates an AuthService guarded by the login policy.
func NewAuthService(users repository.UserRepository, tokens *auth.Manager, limiter *ratelimit.Limiter, policy ratelimit.Policy) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Limiter: limiter, Policy: policy}
}

// Login checks the credentials and issues a token. Attempts are counted per
// client; a successful login clears the client's counter.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, clientKey string) (*models.TokenResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, models.NewBadRequestError("email and password are required")
	}

	decision, err := s.Limiter.Allow(ctx, s.Policy, clientKey)
	if err != nil {
		return nil, models.NewTransientError("login temporarily unavailable", err)
	}
	if !decision.Allowed {
		utils.Warn("login rate limited", map[string]any{"policy": s.Policy.Name, "client": clientKey})
		return nil, models.NewRateLimitedError("too many login attempts", decision.RetryAfter(time.Now()))
	}

	user, err := s.Users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewUnauthenticatedError(invalidCredentials)
		}
		return nil, models.NewTransientError("failed to load user", err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, models.NewUnauthenticatedError(invalidCredentials)
	}

	if err := s.Limiter.Reset(ctx, s.Policy, clientKey); err != nil {
		utils.Warn("failed to reset login counter", map[string]any{"client": clientKey, "error": err.Error()})
	}

	token, err := s.Tokens.GenerateToken(*user)
	if err != nil {
		return nil, models.NewTransientError("failed to issue token", err)
	}
	utils.Info("user logged in", map[string]any{"user_id": user.ID, "role": string(user.Role)})
	return token, nil
}

// Logout revokes the presented token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.Tokens.DestroyToken(ctx, token)
}
