package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/senyabanana/bid-award/internal/models"
)

// MemoryStore is a concurrency-safe in-memory implementation of Store.
// Award transactions are serialized and work on a copy of the state that is
// swapped in only on success, so a failed or expired unit leaves no trace.
type MemoryStore struct {
	mu    sync.Mutex
	state memoryState

	// OpDelay is waited before every transactional operation. Used to
	// exercise timeouts.
	OpDelay time.Duration
}

type memoryState struct {
	projects      map[string]models.Project
	bids          map[string]models.Bid
	bidOrder      []string
	notifications []models.Notification
	users         map[string]models.User
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: memoryState{
			projects: make(map[string]models.Project),
			bids:     make(map[string]models.Bid),
			users:    make(map[string]models.User),
		},
	}
}

func (st memoryState) clone() memoryState {
	out := memoryState{
		projects:      make(map[string]models.Project, len(st.projects)),
		bids:          make(map[string]models.Bid, len(st.bids)),
		bidOrder:      append([]string(nil), st.bidOrder...),
		notifications: append([]models.Notification(nil), st.notifications...),
		users:         st.users,
	}
	for k, v := range st.projects {
		out.projects[k] = v
	}
	for k, v := range st.bids {
		out.bids[k] = v
	}
	return out
}

// AddUser seeds an account.
func (s *MemoryStore) AddUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[user.ID] = user
}

// AddProject seeds a project.
func (s *MemoryStore) AddProject(project models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.projects[project.ID] = project
}

// AddBid seeds a bid.
func (s *MemoryStore) AddBid(bid models.Bid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.bids[bid.ID]; !ok {
		s.state.bidOrder = append(s.state.bidOrder, bid.ID)
	}
	s.state.bids[bid.ID] = bid
}

// Project returns a committed project.
func (s *MemoryStore) Project(id string) (models.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.projects[id]
	return p, ok
}

// Bid returns a committed bid.
func (s *MemoryStore) Bid(id string) (models.Bid, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.bids[id]
	return b, ok
}

// Bids returns every committed bid in insertion order.
func (s *MemoryStore) Bids() []models.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Bid, 0, len(s.state.bidOrder))
	for _, id := range s.state.bidOrder {
		out = append(out, s.state.bids[id])
	}
	return out
}

// Notifications returns every committed notification.
func (s *MemoryStore) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.state.notifications...)
}

// WithinAwardTx runs fn against a private copy of the state and commits it atomically.
func (s *MemoryStore) WithinAwardTx(ctx context.Context, fn func(ctx context.Context, tx AwardTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryAwardTx{state: s.state.clone(), delay: s.OpDelay}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

type memoryAwardTx struct {
	state memoryState
	delay time.Duration
}

func (t *memoryAwardTx) wait(ctx context.Context) error {
	if t.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetBidWithProject loads a bid and its project from the private copy.
func (t *memoryAwardTx) GetBidWithProject(ctx context.Context, bidID string) (*models.Bid, *models.Project, error) {
	if err := t.wait(ctx); err != nil {
		return nil, nil, err
	}
	bid, ok := t.state.bids[bidID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	project, ok := t.state.projects[bid.ProjectID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	return &bid, &project, nil
}

func (t *memoryAwardTx) CompareAndSetProjectStatus(ctx context.Context, projectID, ownerID string, from, to models.ProjectStatus, awardedBidID string) (*models.Project, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	project, ok := t.state.projects[projectID]
	if !ok || project.CreatedBy != ownerID || project.Status != from {
		return nil, ErrNotApplied
	}
	project.Status = to
	awarded := awardedBidID
	project.AwardedBidID = &awarded
	project.UpdatedAt = time.Now().UTC()
	t.state.projects[projectID] = project
	return &project, nil
}

func (t *memoryAwardTx) SetBidStatus(ctx context.Context, bidID, projectID string, from []models.BidStatus, to models.BidStatus) (*models.Bid, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	bid, ok := t.state.bids[bidID]
	if !ok || bid.ProjectID != projectID || !bid.Status.In(from) {
		return nil, ErrNotApplied
	}
	bid.Status = to
	bid.UpdatedAt = time.Now().UTC()
	t.state.bids[bidID] = bid
	return &bid, nil
}

func (t *memoryAwardTx) BulkSetBidStatus(ctx context.Context, projectID, exceptBidID string, from []models.BidStatus, to models.BidStatus) ([]models.Bid, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var updated []models.Bid
	for _, id := range t.state.bidOrder {
		bid := t.state.bids[id]
		if bid.ProjectID != projectID || bid.ID == exceptBidID || !bid.Status.In(from) {
			continue
		}
		bid.Status = to
		bid.UpdatedAt = now
		t.state.bids[id] = bid
		updated = append(updated, bid)
	}
	return updated, nil
}

func (t *memoryAwardTx) InsertNotifications(ctx context.Context, notifications []models.Notification) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	t.state.notifications = append(t.state.notifications, notifications...)
	return nil
}

// ListNotifications returns the user's notifications, newest first.
func (s *MemoryStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []models.Notification{}
	for _, n := range s.state.notifications {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		matched = append(matched, n)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []models.Notification{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// MarkNotificationRead sets the read flag on a notification addressed to userID.
func (s *MemoryStore) MarkNotificationRead(ctx context.Context, notificationID, userID string) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.state.notifications {
		if n.ID == notificationID && n.UserID == userID {
			s.state.notifications[i].Read = true
			out := s.state.notifications[i]
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// GetUserByEmail returns the account registered under email.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.state.users {
		if strings.ToLower(u.Email) == email {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}
