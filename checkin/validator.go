package checkin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"checkin-backend/models"
	"checkin-backend/store"
	"checkin-backend/telemetry"
)

type ValidatorConfig struct {
	// EnforceExpiry rejects credentials whose expires_at is not after now.
	// When false only existence of the token is checked.
	EnforceExpiry bool
	Now           func() time.Time
}

// Validator redeems scanned credentials. Each call walks
// Received -> Resolved -> Authorized -> Committed, or stops at Rejected.
type Validator struct {
	credentials   store.CredentialStore
	checkins      store.CheckinStore
	enforceExpiry bool
	now           func() time.Time
}

func NewValidator(credentials store.CredentialStore, checkins store.CheckinStore, cfg ValidatorConfig) *Validator {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Validator{
		credentials:   credentials,
		checkins:      checkins,
		enforceExpiry: cfg.EnforceExpiry,
		now:           cfg.Now,
	}
}

// Redeem records a first-time check-in for userID at the event the scanned
// credential belongs to. Policy rejections come back as a rejected result with
// a nil error; only storage failures return an error.
func (v *Validator) Redeem(ctx context.Context, rawScan, userID string) (*models.CheckinResult, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	result, err := v.redeem(ctx, rawScan, userID)
	if err != nil {
		telemetry.RedemptionsTotal.WithLabelValues("Error:Storage").Inc()
		slog.Error("check-in failed", "user_id", userID, "error", err)
		return nil, err
	}

	telemetry.RedemptionsTotal.WithLabelValues(result.Code()).Inc()
	if result.Committed() {
		slog.Info("check-in committed", "user_id", userID, "event_id", result.EventID)
	} else {
		slog.Info("check-in rejected", "user_id", userID, "event_id", result.EventID, "reason", result.Reason)
	}
	return result, nil
}

func (v *Validator) redeem(ctx context.Context, rawScan, userID string) (*models.CheckinResult, error) {
	token, ok := ParseScan(rawScan)
	if !ok {
		return rejected(models.ReasonInvalidToken, 0), nil
	}

	cred, err := v.credentials.CredentialByToken(ctx, token)
	if err != nil {
		return nil, storageErr("resolve credential", err)
	}
	if cred == nil {
		return rejected(models.ReasonInvalidToken, 0), nil
	}

	now := v.now()
	if v.enforceExpiry && !cred.ActiveAt(now) {
		return rejected(models.ReasonInvalidToken, 0), nil
	}

	exists, err := v.checkins.CheckinExists(ctx, userID, cred.EventID)
	if err != nil {
		return nil, storageErr("check existing check-in", err)
	}
	if exists {
		return rejected(models.ReasonAlreadyCheckedIn, cred.EventID), nil
	}

	rec := &models.CheckinRecord{
		ID:          uuid.New(),
		UserID:      userID,
		EventID:     cred.EventID,
		CheckedInAt: now,
	}
	err = v.checkins.InsertCheckin(ctx, rec)
	if errors.Is(err, store.ErrDuplicateCheckin) {
		// lost a concurrent race for the same (user, event)
		return rejected(models.ReasonAlreadyCheckedIn, cred.EventID), nil
	}
	if err != nil {
		return nil, storageErr("insert check-in", err)
	}

	return &models.CheckinResult{
		Status:      models.CheckinCommitted,
		EventID:     rec.EventID,
		CheckedInAt: &rec.CheckedInAt,
	}, nil
}

func rejected(reason string, eventID int64) *models.CheckinResult {
	return &models.CheckinResult{
		Status:  models.CheckinRejected,
		Reason:  reason,
		EventID: eventID,
	}
}
