package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"checkin-backend/models"
)

type checkinKey struct {
	userID  string
	eventID int64
}

// Memory is an in-process Store used by tests and the memory driver.
type Memory struct {
	mu          sync.Mutex
	events      map[int64]models.Event
	credentials []models.Credential
	byToken     map[string]int
	checkins    map[checkinKey]models.CheckinRecord
}

func NewMemory(events ...models.Event) *Memory {
	m := &Memory{
		events:   make(map[int64]models.Event),
		byToken:  make(map[string]int),
		checkins: make(map[checkinKey]models.CheckinRecord),
	}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *Memory) AddEvent(e models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = e
}

func (m *Memory) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListEvents(ctx context.Context) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (m *Memory) LatestActiveCredential(ctx context.Context, eventID int64, now time.Time) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Credential
	for i := range m.credentials {
		c := m.credentials[i]
		if c.EventID != eventID || !c.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || !c.IssuedAt.Before(latest.IssuedAt) {
			latest = &c
		}
	}
	return latest, nil
}

func (m *Memory) InsertCredential(ctx context.Context, cred *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byToken[cred.Value]; ok {
		return ErrDuplicateToken
	}
	m.credentials = append(m.credentials, *cred)
	m.byToken[cred.Value] = len(m.credentials) - 1
	return nil
}

func (m *Memory) CredentialByToken(ctx context.Context, token string) (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.byToken[token]
	if !ok {
		return nil, nil
	}
	c := m.credentials[i]
	return &c, nil
}

func (m *Memory) CheckinExists(ctx context.Context, userID string, eventID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.checkins[checkinKey{userID, eventID}]
	return ok, nil
}

func (m *Memory) InsertCheckin(ctx context.Context, rec *models.CheckinRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := checkinKey{rec.UserID, rec.EventID}
	if _, ok := m.checkins[key]; ok {
		return ErrDuplicateCheckin
	}
	m.checkins[key] = *rec
	return nil
}

func (m *Memory) CheckinHistory(ctx context.Context, userID string) ([]models.CheckinHistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []models.CheckinHistoryItem
	for key, rec := range m.checkins {
		if key.userID != userID {
			continue
		}
		name := "Unknown Event"
		if e, ok := m.events[rec.EventID]; ok {
			name = e.Name
		}
		items = append(items, models.CheckinHistoryItem{
			EventID:     rec.EventID,
			EventName:   name,
			CheckedInAt: rec.CheckedInAt,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CheckedInAt.After(items[j].CheckedInAt) })
	return items, nil
}

func (m *Memory) EventCheckins(ctx context.Context, eventID int64) ([]models.CheckinRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var records []models.CheckinRecord
	for key, rec := range m.checkins {
		if key.eventID == eventID {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CheckedInAt.After(records[j].CheckedInAt) })
	return records, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() {}
