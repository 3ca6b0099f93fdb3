// Package checkin implements the rotating QR credential lifecycle and
// one-time check-in redemption.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"checkin-backend/models"
	"checkin-backend/store"
	"checkin-backend/telemetry"
)

const DefaultTTL = 24 * time.Hour

// token collisions are astronomically unlikely; this only bounds the loop
const maxIssueAttempts = 3

type IssuerConfig struct {
	TTL time.Duration
	Now func() time.Time
}

// Issuer creates rotating credentials. It holds no mutable state; the current
// credential is always re-resolved from storage.
type Issuer struct {
	events      store.EventStore
	credentials store.CredentialStore
	ttl         time.Duration
	now         func() time.Time
}

func NewIssuer(events store.EventStore, credentials store.CredentialStore, cfg IssuerConfig) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{
		events:      events,
		credentials: credentials,
		ttl:         cfg.TTL,
		now:         cfg.Now,
	}
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// GetOrIssueCredential returns the most recent credential for eventID that is
// still active, or issues a new one when none is. Repeated calls within the
// TTL return the same value. Two callers racing on an empty event may both
// issue; both credentials are valid.
func (i *Issuer) GetOrIssueCredential(ctx context.Context, eventID int64) (*models.Credential, error) {
	if eventID <= 0 {
		return nil, ErrInvalidEvent
	}

	cred, err := i.credentials.LatestActiveCredential(ctx, eventID, i.now())
	if err != nil {
		return nil, storageErr("lookup current credential", err)
	}
	if cred != nil {
		return cred, nil
	}

	return i.issue(ctx, eventID, "initial")
}

// ForceRotate issues a new credential unconditionally. Earlier credentials are
// left untouched and stay redeemable until their own expiry.
func (i *Issuer) ForceRotate(ctx context.Context, eventID int64) (*models.Credential, error) {
	if eventID <= 0 {
		return nil, ErrInvalidEvent
	}
	return i.issue(ctx, eventID, "rotate")
}

func (i *Issuer) issue(ctx context.Context, eventID int64, reason string) (*models.Credential, error) {
	event, err := i.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storageErr("lookup event", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	for attempt := 1; ; attempt++ {
		value, err := NewToken()
		if err != nil {
			return nil, fmt.Errorf("generate credential token: %w", err)
		}

		now := i.now()
		cred := &models.Credential{
			ID:        uuid.New(),
			EventID:   eventID,
			Value:     value,
			IssuedAt:  now,
			ExpiresAt: now.Add(i.ttl),
		}

		err = i.credentials.InsertCredential(ctx, cred)
		if errors.Is(err, store.ErrDuplicateToken) && attempt < maxIssueAttempts {
			continue
		}
		if err != nil {
			slog.Error("failed to store credential", "event_id", eventID, "error", err)
			return nil, storageErr("insert credential", err)
		}

		telemetry.CredentialsIssuedTotal.WithLabelValues(reason).Inc()
		slog.Info("credential issued",
			"event_id", eventID,
			"credential_id", cred.ID,
			"token", tokenPrefix(cred.Value),
			"expires_at", cred.ExpiresAt,
			"reason", reason,
		)
		return cred, nil
	}
}
