package auth

import (
	"context"

	"github.com/senyabanana/bid-award/internal/models"
)

type actorKey struct{}

// WithActor stores the authenticated actor in ctx.
func WithActor(ctx context.Context, actor *models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by the guard middleware.
func ActorFromContext(ctx context.Context) (*models.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(*models.Actor)
	return actor, ok && actor != nil
}

// RequireRole fails with Forbidden unless actor has one of roles.
func RequireRole(actor *models.Actor, roles ...models.Role) error {
	if actor == nil {
		return models.NewUnauthenticatedError("missing credentials")
	}
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return models.NewForbiddenError("insufficient rights to perform this action")
}
