package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential is the rotating QR token for an event. Rows are insert-only.
type Credential struct {
	ID        uuid.UUID `json:"id" db:"id"`
	EventID   int64     `json:"event_id" db:"event_id"`
	Value     string    `json:"token" db:"token"`
	IssuedAt  time.Time `json:"issued_at" db:"issued_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// ActiveAt reports whether the credential has not yet expired at t.
func (c *Credential) ActiveAt(t time.Time) bool {
	return c.ExpiresAt.After(t)
}

// CredentialResponse is what the admin display surface renders as a QR image.
type CredentialResponse struct {
	EventID    int64     `json:"event_id"`
	Token      string    `json:"token"`
	CheckinURL string    `json:"checkin_url"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
