package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/bid-award/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenType = "Bearer"

var signingMethod = jwt.SigningMethodHS256

// Storer keeps revoked token ids.
type Storer interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type options struct {
	issuer string
	ttl    time.Duration
}

// Option configures a Manager.
type Option func(*options)

// WithIssuer sets the iss claim written and required.
func WithIssuer(issuer string) Option {
	return func(o *options) {
		o.issuer = issuer
	}
}

// WithTTL sets the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// Manager issues and verifies signed credentials.
type Manager struct {
	secret []byte
	opts   options
	store  Storer
	now    func() time.Time
}

// NewManager creates a Manager. store may be nil, in which case tokens cannot be revoked.
func NewManager(secret string, store Storer, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	o := options{ttl: 2 * time.Hour}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{secret: []byte(secret), opts: o, store: store, now: time.Now}, nil
}

// GenerateToken signs a token for user.
func (m *Manager) GenerateToken(user models.User) (*models.TokenResponse, error) {
	now := m.now()
	expiresAt := now.Add(m.opts.ttl)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}
	if m.opts.issuer != "" {
		claims["iss"] = m.opts.issuer
	}
	if user.CompanyID != "" {
		claims["companyId"] = user.CompanyID
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &models.TokenResponse{
		AccessToken: signed,
		TokenType:   tokenType,
		ExpiresAt:   expiresAt.Unix(),
	}, nil
}

// Authenticate verifies the credential and returns the actor it names.
// Revoked tokens are rejected with a single store read.
func (m *Manager) Authenticate(ctx context.Context, tokenString string) (*models.Actor, error) {
	actor, _, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if m.store == nil {
		return actor, nil
	}

	revoked, err := m.store.IsRevoked(ctx, actor.TokenID)
	if err != nil {
		return nil, models.NewTransientError("session store unavailable", err)
	}
	if revoked {
		return nil, models.NewUnauthenticatedError("token has been revoked")
	}
	return actor, nil
}

// DestroyToken revokes the credential for the rest of its lifetime.
func (m *Manager) DestroyToken(ctx context.Context, tokenString string) error {
	actor, expiresAt, err := m.parse(tokenString)
	if err != nil {
		return err
	}
	if m.store == nil {
		return nil
	}
	if err := m.store.Revoke(ctx, actor.TokenID, expiresAt.Sub(m.now())); err != nil {
		return models.NewTransientError("session store unavailable", err)
	}
	return nil
}

func (m *Manager) parse(tokenString string) (*models.Actor, time.Time, error) {
	if tokenString == "" {
		return nil, time.Time{}, models.NewUnauthenticatedError("missing credentials")
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.opts.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(m.opts.issuer))
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, parserOpts...)
	if err != nil || !token.Valid {
		return nil, time.Time{}, models.NewUnauthenticatedError("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, time.Time{}, models.NewUnauthenticatedError("invalid token claims")
	}
	actor, err := actorFromClaims(claims)
	if err != nil {
		return nil, time.Time{}, models.NewUnauthenticatedError(err.Error())
	}
	if iat, err := claims.GetIssuedAt(); err != nil || iat == nil {
		return nil, time.Time{}, models.NewUnauthenticatedError("invalid token claims")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, time.Time{}, models.NewUnauthenticatedError("invalid token claims")
	}
	return actor, exp.Time, nil
}

// actorFromClaims rejects absent or mistyped claims instead of coercing them.
func actorFromClaims(claims jwt.MapClaims) (*models.Actor, error) {
	sub, err := requiredString(claims, "sub")
	if err != nil {
		return nil, err
	}
	role, err := requiredString(claims, "role")
	if err != nil {
		return nil, err
	}
	if !models.Role(role).Valid() {
		return nil, fmt.Errorf("claim role has unknown value")
	}
	jti, err := requiredString(claims, "jti")
	if err != nil {
		return nil, err
	}

	actor := &models.Actor{UserID: sub, Role: models.Role(role), TokenID: jti}
	if raw, present := claims["companyId"]; present {
		companyID, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("claim companyId must be a string")
		}
		actor.CompanyID = companyID
	}
	return actor, nil
}

func requiredString(claims jwt.MapClaims, name string) (string, error) {
	raw, present := claims[name]
	if !present {
		return "", fmt.Errorf("claim %s is required", name)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("claim %s must be a non-empty string", name)
	}
	return s, nil
}
