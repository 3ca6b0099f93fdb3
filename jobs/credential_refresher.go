// Package jobs holds background work that runs alongside the HTTP server.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"checkin-backend/models"
	"checkin-backend/telemetry"
)

type CurrentCredentialIssuer interface {
	GetOrIssueCredential(ctx context.Context, eventID int64) (*models.Credential, error)
}

// CredentialRefresher keeps a current credential in place for each configured
// event so displays never poll into an expired code. It only ever calls
// get-or-issue and has nothing to do with redemption.
type CredentialRefresher struct {
	issuer   CurrentCredentialIssuer
	eventIDs []int64
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewCredentialRefresher(issuer CurrentCredentialIssuer, eventIDs []int64, interval time.Duration) *CredentialRefresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CredentialRefresher{
		issuer:   issuer,
		eventIDs: eventIDs,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (r *CredentialRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Info("credential refresher started", "interval", r.interval, "events", r.eventIDs)

	r.refresh(ctx)

	for {
		select {
		case <-ticker.C:
			r.refresh(ctx)
		case <-r.stopChan:
			slog.Info("credential refresher stopped")
			return
		case <-ctx.Done():
			slog.Info("credential refresher context cancelled")
			return
		}
	}
}

func (r *CredentialRefresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

func (r *CredentialRefresher) refresh(ctx context.Context) {
	for _, eventID := range r.eventIDs {
		if ctx.Err() != nil {
			return
		}
		cred, err := r.issuer.GetOrIssueCredential(ctx, eventID)
		if err != nil {
			telemetry.CredentialRefreshErrorsTotal.Inc()
			slog.Error("credential refresh failed", "event_id", eventID, "error", err)
			continue
		}
		slog.Debug("credential current", "event_id", eventID, "expires_at", cred.ExpiresAt)
	}
}
