// Package store is the persistence collaborator for credentials and check-ins.
// Every write is an insert; nothing is updated in place.
package store

import (
	"context"
	"errors"
	"time"

	"checkin-backend/models"
)

// ErrDuplicateCheckin is returned by InsertCheckin when the (user, event) pair already has a record.
var ErrDuplicateCheckin = errors.New("check-in already exists for user and event")

// ErrDuplicateToken is returned by InsertCredential when the token value is already taken.
var ErrDuplicateToken = errors.New("credential token already exists")

type EventStore interface {
	// GetEvent returns nil, nil when the event does not exist.
	GetEvent(ctx context.Context, eventID int64) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
}

type CredentialStore interface {
	// LatestActiveCredential returns the most recently issued credential for the
	// event whose expires_at is strictly after now, or nil, nil.
	LatestActiveCredential(ctx context.Context, eventID int64, now time.Time) (*models.Credential, error)
	InsertCredential(ctx context.Context, cred *models.Credential) error
	// CredentialByToken returns nil, nil when no credential has that exact value.
	CredentialByToken(ctx context.Context, token string) (*models.Credential, error)
}

type CheckinStore interface {
	CheckinExists(ctx context.Context, userID string, eventID int64) (bool, error)
	// InsertCheckin must be atomic with respect to the (user, event) pair and
	// return ErrDuplicateCheckin when it loses a race.
	InsertCheckin(ctx context.Context, rec *models.CheckinRecord) error
	CheckinHistory(ctx context.Context, userID string) ([]models.CheckinHistoryItem, error)
	EventCheckins(ctx context.Context, eventID int64) ([]models.CheckinRecord, error)
}

// Store bundles every collaborator the service needs.
type Store interface {
	EventStore
	CredentialStore
	CheckinStore
	Ping(ctx context.Context) error
	Close()
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*Memory)(nil)
)
