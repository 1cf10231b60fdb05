package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/bid-award/internal/metrics"
	"github.com/senyabanana/bid-award/internal/models"
	"github.com/senyabanana/bid-award/internal/notify"
	"github.com/senyabanana/bid-award/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEnqueuer struct {
	mu    sync.Mutex
	calls [][]models.Notification
}

func (e *recordingEnqueuer) Enqueue(notifications []models.Notification) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, notifications)
	return len(notifications)
}

func (e *recordingEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

var owner = &models.Actor{UserID: "c1", Role: models.Contractor}

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// scenarioStore seeds project P with B1, B2, B3 and an unrelated project Q.
func scenarioStore() *repository.MemoryStore {
	s := repository.NewMemoryStore()
	s.AddProject(models.Project{ID: "P", Title: "Warehouse roof", Status: models.PublishedProject, CreatedBy: "c1"})
	s.AddBid(models.Bid{ID: "B1", ProjectID: "P", SubcontractorID: "s1", TotalAmount: amount("10000"), Status: models.SubmittedBid})
	s.AddBid(models.Bid{ID: "B2", ProjectID: "P", SubcontractorID: "s2", TotalAmount: amount("12000"), Status: models.SubmittedBid})
	s.AddBid(models.Bid{ID: "B3", ProjectID: "P", SubcontractorID: "s3", TotalAmount: amount("9000"), Status: models.DraftBid})

	s.AddProject(models.Project{ID: "Q", Title: "Parking lot", Status: models.PublishedProject, CreatedBy: "c1"})
	s.AddBid(models.Bid{ID: "B4", ProjectID: "Q", SubcontractorID: "s2", TotalAmount: amount("500"), Status: models.SubmittedBid})
	return s
}

func newTestAwardService(store repository.AwardStore, enq Enqueuer) *AwardService {
	return NewAwardService(store, enq, metrics.New(), time.Second)
}

func TestAwardBid_Scenario(t *testing.T) {
	store := scenarioStore()
	enq := &recordingEnqueuer{}
	svc := newTestAwardService(store, enq)

	result, err := svc.AwardBid(context.Background(), "B1", owner)
	require.NoError(t, err)

	assert.Equal(t, models.AwardedBid, result.Bid.Status)
	assert.Equal(t, models.AwardedProject, result.Project.Status)
	require.NotNil(t, result.Project.AwardedBidID)
	assert.Equal(t, "B1", *result.Project.AwardedBidID)
	assert.True(t, result.Bid.TotalAmount.Equal(amount("10000")))
	assert.Equal(t, 3, result.NotificationsCreated)

	p, _ := store.Project("P")
	assert.Equal(t, models.AwardedProject, p.Status)
	for id, want := range map[string]models.BidStatus{
		"B1": models.AwardedBid,
		"B2": models.DeclinedBid,
		"B3": models.DeclinedBid,
		"B4": models.SubmittedBid,
	} {
		b, _ := store.Bid(id)
		assert.Equal(t, want, b.Status, id)
	}
	q, _ := store.Project("Q")
	assert.Equal(t, models.PublishedProject, q.Status)

	notifications := store.Notifications()
	require.Len(t, notifications, 3)
	byUser := map[string]models.Notification{}
	for _, n := range notifications {
		assert.Equal(t, models.BidAwardedNotification, n.Type)
		assert.False(t, n.Read)
		byUser[n.UserID] = n
	}
	require.Contains(t, byUser, "s1")
	require.NotNil(t, byUser["s1"].Link)
	assert.Equal(t, "/projects/P/bids/B1", *byUser["s1"].Link)
	assert.Contains(t, byUser["s1"].Message, "Congratulations")
	for _, loser := range []string{"s2", "s3"} {
		require.Contains(t, byUser, loser)
		assert.Nil(t, byUser[loser].Link)
		assert.Equal(t, loserMessage, byUser[loser].Message)
	}

	require.Equal(t, 1, enq.count())
	assert.Len(t, enq.calls[0], 3)
}

func TestAwardBid_AtMostOneWinner(t *testing.T) {
	for _, n := range []int{2, 5, 20} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			store := repository.NewMemoryStore()
			store.AddProject(models.Project{ID: "P", Title: "Bridge", Status: models.PublishedProject, CreatedBy: "c1"})
			for i := 0; i < n; i++ {
				store.AddBid(models.Bid{
					ID:              fmt.Sprintf("B%d", i),
					ProjectID:       "P",
					SubcontractorID: fmt.Sprintf("s%d", i),
					TotalAmount:     amount("100"),
					Status:          models.SubmittedBid,
				})
			}
			enq := &recordingEnqueuer{}
			svc := newTestAwardService(store, enq)

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				winners   []string
				conflicts int
				others    []error
			)
			start := make(chan struct{})
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(bidID string) {
					defer wg.Done()
					<-start
					_, err := svc.AwardBid(context.Background(), bidID, owner)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						winners = append(winners, bidID)
					case errors.Is(err, models.ErrConflict):
						conflicts++
					default:
						others = append(others, err)
					}
				}(fmt.Sprintf("B%d", i))
			}
			close(start)
			wg.Wait()

			require.Empty(t, others)
			require.Len(t, winners, 1)
			assert.Equal(t, n-1, conflicts)

			awarded := 0
			for _, b := range store.Bids() {
				if b.Status == models.AwardedBid {
					awarded++
					assert.Equal(t, winners[0], b.ID)
				} else {
					assert.Equal(t, models.DeclinedBid, b.Status)
				}
			}
			assert.Equal(t, 1, awarded)
			assert.Len(t, store.Notifications(), n)
			assert.Equal(t, 1, enq.count())
		})
	}
}

func TestAwardBid_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		bidID   string
		actor   *models.Actor
		seed    func(s *repository.MemoryStore)
		wantErr error
	}{
		{name: "not_owner", bidID: "B1", actor: &models.Actor{UserID: "c2", Role: models.Contractor}, wantErr: models.ErrForbidden},
		{name: "subcontractor_role", bidID: "B1", actor: &models.Actor{UserID: "c1", Role: models.Subcontractor}, wantErr: models.ErrForbidden},
		{name: "no_actor", bidID: "B1", actor: nil, wantErr: models.ErrUnauthenticated},
		{name: "unknown_bid", bidID: "missing", actor: owner, wantErr: models.ErrNotFound},
		{name: "empty_bid", bidID: "", actor: owner, wantErr: models.ErrBadRequest},
		{name: "project_not_published", bidID: "B1", actor: owner, seed: func(s *repository.MemoryStore) {
			s.AddProject(models.Project{ID: "P", Title: "Warehouse roof", Status: models.ClosedProject, CreatedBy: "c1"})
		}, wantErr: models.ErrConflict},
		{name: "bid_withdrawn", bidID: "B1", actor: owner, seed: func(s *repository.MemoryStore) {
			s.AddBid(models.Bid{ID: "B1", ProjectID: "P", SubcontractorID: "s1", TotalAmount: amount("10000"), Status: models.WithdrawnBid})
		}, wantErr: models.ErrConflict},
		{name: "bid_draft", bidID: "B3", actor: owner, wantErr: models.ErrConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := scenarioStore()
			if tc.seed != nil {
				tc.seed(store)
			}
			before, _ := store.Project("P")
			bidsBefore := store.Bids()
			enq := &recordingEnqueuer{}

			_, err := newTestAwardService(store, enq).AwardBid(context.Background(), tc.bidID, tc.actor)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)

			after, _ := store.Project("P")
			assert.Equal(t, before, after)
			assert.Equal(t, bidsBefore, store.Bids())
			assert.Empty(t, store.Notifications())
			assert.Equal(t, 0, enq.count())
		})
	}
}

func TestAwardBid_RetryIsConflict(t *testing.T) {
	store := scenarioStore()
	enq := &recordingEnqueuer{}
	svc := newTestAwardService(store, enq)

	_, err := svc.AwardBid(context.Background(), "B1", owner)
	require.NoError(t, err)
	require.Len(t, store.Notifications(), 3)

	_, err = svc.AwardBid(context.Background(), "B1", owner)
	require.ErrorIs(t, err, models.ErrConflict)
	assert.Len(t, store.Notifications(), 3)
	assert.Equal(t, 1, enq.count())

	// a competing bid cannot be awarded afterwards either
	_, err = svc.AwardBid(context.Background(), "B2", owner)
	require.ErrorIs(t, err, models.ErrConflict)
	b2, _ := store.Bid("B2")
	assert.Equal(t, models.DeclinedBid, b2.Status)
}

func TestAwardBid_TimeoutRollsBack(t *testing.T) {
	store := scenarioStore()
	store.OpDelay = 30 * time.Millisecond
	enq := &recordingEnqueuer{}
	svc := NewAwardService(store, enq, nil, 50*time.Millisecond)

	_, err := svc.AwardBid(context.Background(), "B1", owner)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransient)
	assert.NotErrorIs(t, err, models.ErrConflict)

	p, _ := store.Project("P")
	assert.Equal(t, models.PublishedProject, p.Status)
	b1, _ := store.Bid("B1")
	assert.Equal(t, models.SubmittedBid, b1.Status)
	assert.Empty(t, store.Notifications())
	assert.Equal(t, 0, enq.count())

	// the caller may retry once the store is healthy again
	store.OpDelay = 0
	_, err = svc.AwardBid(context.Background(), "B1", owner)
	require.NoError(t, err)
}

func TestAwardBid_NotificationsDistinctRecipients(t *testing.T) {
	store := repository.NewMemoryStore()
	store.AddProject(models.Project{ID: "P", Title: "Warehouse roof", Status: models.PublishedProject, CreatedBy: "c1"})
	store.AddBid(models.Bid{ID: "B1", ProjectID: "P", SubcontractorID: "s1", TotalAmount: amount("1"), Status: models.SubmittedBid})
	store.AddBid(models.Bid{ID: "B2", ProjectID: "P", SubcontractorID: "s2", TotalAmount: amount("2"), Status: models.SubmittedBid})
	store.AddBid(models.Bid{ID: "B3", ProjectID: "P", SubcontractorID: "s2", TotalAmount: amount("3"), Status: models.UnderReviewBid})
	store.AddBid(models.Bid{ID: "B4", ProjectID: "P", SubcontractorID: "s1", TotalAmount: amount("4"), Status: models.DraftBid})
	store.AddBid(models.Bid{ID: "B5", ProjectID: "P", SubcontractorID: "s3", TotalAmount: amount("5"), Status: models.WithdrawnBid})

	result, err := newTestAwardService(store, nil).AwardBid(context.Background(), "B1", owner)
	require.NoError(t, err)
	assert.Len(t, result.DeclinedBids, 3)
	assert.Equal(t, 2, result.NotificationsCreated)

	users := map[string]bool{}
	for _, n := range store.Notifications() {
		assert.False(t, users[n.UserID], "duplicate recipient %s", n.UserID)
		users[n.UserID] = true
	}
	assert.Equal(t, map[string]bool{"s1": true, "s2": true}, users)

	b5, _ := store.Bid("B5")
	assert.Equal(t, models.WithdrawnBid, b5.Status)
}

func TestAwardBid_BroadcastFailureDoesNotAffectResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := notify.NewMockBroadcaster(ctrl)
	b.EXPECT().Broadcast(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("channel down")).Times(3)
	dispatcher := notify.NewDispatcher(b, nil, notify.WithWorkers(1))

	store := scenarioStore()
	result, err := newTestAwardService(store, dispatcher).AwardBid(context.Background(), "B1", owner)
	require.NoError(t, err)
	assert.Equal(t, 3, result.NotificationsCreated)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Close(ctx))

	p, _ := store.Project("P")
	assert.Equal(t, models.AwardedProject, p.Status)
	assert.Len(t, store.Notifications(), 3)
}
