package notify

//go:generate mockgen -source=broadcaster.go -destination=mock_broadcaster.go -package=notify

import (
	"context"
	"fmt"

	"github.com/senyabanana/bid-award/internal/utils"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Broadcaster pushes a payload to one user's real-time channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, userID string, payload []byte) error
}

// UserChannel is the Redis pub/sub channel of a user.
func UserChannel(userID string) string {
	return fmt.Sprintf("user:%s:notifications", userID)
}

// UserSubject is the NATS subject of a user.
func UserSubject(userID string) string {
	return "notifications.user." + userID
}

// RedisBroadcaster publishes on per-user Redis channels.
type RedisBroadcaster struct {
	rdb redis.Cmdable
}

// NewRedisBroadcaster creates a RedisBroadcaster.
func NewRedisBroadcaster(rdb redis.Cmdable) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

// Broadcast publishes payload on the user's channel.
func (b *RedisBroadcaster) Broadcast(ctx context.Context, userID string, payload []byte) error {
	return b.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// NATSBroadcaster publishes on per-user NATS subjects.
type NATSBroadcaster struct {
	nc *nats.Conn
}

// NewNATSBroadcaster creates a NATSBroadcaster over an open connection.
func NewNATSBroadcaster(nc *nats.Conn) *NATSBroadcaster {
	return &NATSBroadcaster{nc: nc}
}

// Broadcast publishes and waits for the server to acknowledge the flush.
func (b *NATSBroadcaster) Broadcast(ctx context.Context, userID string, payload []byte) error {
	if err := b.nc.Publish(UserSubject(userID), payload); err != nil {
		return err
	}
	return b.nc.FlushWithContext(ctx)
}

// LogBroadcaster only logs. Used when no real-time channel is configured.
type LogBroadcaster struct{}

// Broadcast only logs the delivery.
func (LogBroadcaster) Broadcast(_ context.Context, userID string, payload []byte) error {
	utils.Debug("notification broadcast", map[string]any{"user_id": userID, "bytes": len(payload)})
	return nil
}
