package services

import (
	"context"
	"testing"
	"time"

	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService(t *testing.T) {
	store := scenarioStore()
	_, err := newTestAwardService(store, nil).AwardBid(context.Background(), "B1", owner)
	require.NoError(t, err)

	svc := NewNotificationService(store)
	winner := &models.Actor{UserID: "s1", Role: models.Subcontractor}
	ctx := context.Background()

	list, err := svc.ListNotifications(ctx, winner, "", "", "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Title, "Warehouse roof")

	_, err = svc.MarkRead(ctx, &models.Actor{UserID: "s2", Role: models.Subcontractor}, list[0].ID)
	require.ErrorIs(t, err, models.ErrNotFound)

	read, err := svc.MarkRead(ctx, winner, list[0].ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	unread, err := svc.ListNotifications(ctx, winner, "10", "0", "true")
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNotificationService_Validation(t *testing.T) {
	svc := NewNotificationService(repository.NewMemoryStore())
	actor := &models.Actor{UserID: "u1", Role: models.Subcontractor}
	ctx := context.Background()

	tests := []struct {
		name                string
		limit, offset, read string
		wantErr             error
	}{
		{name: "limit_too_large", limit: "51", wantErr: models.ErrBadRequest},
		{name: "negative_offset", offset: "-1", wantErr: models.ErrBadRequest},
		{name: "bad_unread", read: "maybe", wantErr: models.ErrBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ListNotifications(ctx, actor, tc.limit, tc.offset, tc.read)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, err := svc.ListNotifications(ctx, nil, "", "", "")
	require.ErrorIs(t, err, models.ErrUnauthenticated)

	canceled, cancel := context.WithTimeout(ctx, time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	_, err = svc.ListNotifications(canceled, actor, "", "", "")
	require.ErrorIs(t, err, models.ErrTransient)
}
