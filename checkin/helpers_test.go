package checkin

import (
	"context"
	"errors"
	"sync"
	"time"

	"checkin-backend/models"
	"checkin-backend/store"
)

var (
	t0     = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	errDB  = errors.New("connection refused")
	event1 = models.Event{ID: 1, Name: "Shizuoka Meetup"}
)

// fakeClock is a settable clock shared by an issuer and a validator.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyStore wraps Memory and fails selected operations.
type flakyStore struct {
	*store.Memory
	failLookup  bool
	failInsert  bool
	failEvent   bool
	failExists  bool
	failCheckin error
	skipExists  bool
}

func (s *flakyStore) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	if s.failEvent {
		return nil, errDB
	}
	return s.Memory.GetEvent(ctx, id)
}

func (s *flakyStore) LatestActiveCredential(ctx context.Context, id int64, now time.Time) (*models.Credential, error) {
	if s.failLookup {
		return nil, errDB
	}
	return s.Memory.LatestActiveCredential(ctx, id, now)
}

func (s *flakyStore) InsertCredential(ctx context.Context, c *models.Credential) error {
	if s.failInsert {
		return errDB
	}
	return s.Memory.InsertCredential(ctx, c)
}

func (s *flakyStore) CredentialByToken(ctx context.Context, token string) (*models.Credential, error) {
	if s.failLookup {
		return nil, errDB
	}
	return s.Memory.CredentialByToken(ctx, token)
}

func (s *flakyStore) CheckinExists(ctx context.Context, userID string, eventID int64) (bool, error) {
	if s.failExists {
		return false, errDB
	}
	if s.skipExists {
		// simulates a concurrent writer that committed between read and insert
		return false, nil
	}
	return s.Memory.CheckinExists(ctx, userID, eventID)
}

func (s *flakyStore) InsertCheckin(ctx context.Context, rec *models.CheckinRecord) error {
	if s.failCheckin != nil {
		return s.failCheckin
	}
	return s.Memory.InsertCheckin(ctx, rec)
}
