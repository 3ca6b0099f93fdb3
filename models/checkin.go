package models

import (
	"time"

	"github.com/google/uuid"
)

type CheckinRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	EventID     int64     `json:"event_id" db:"event_id"`
	CheckedInAt time.Time `json:"checked_in_at" db:"checked_in_at"`
}

// CheckinHistoryItem is a check-in joined with its event name.
type CheckinHistoryItem struct {
	EventID     int64     `json:"event_id"`
	EventName   string    `json:"event_name"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// Check-in result statuses
const (
	CheckinCommitted = "committed"
	CheckinRejected  = "rejected"
)

// Rejection reasons
const (
	ReasonInvalidToken     = "invalid_token"
	ReasonAlreadyCheckedIn = "already_checked_in"
)

// CheckinResult is the terminal state of one redemption attempt.
type CheckinResult struct {
	Status      string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	EventID     int64      `json:"event_id,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
}

func (r *CheckinResult) Committed() bool {
	return r.Status == CheckinCommitted
}

// Code returns the logical result code, e.g. "Committed" or "Rejected:InvalidToken".
func (r *CheckinResult) Code() string {
	if r.Committed() {
		return "Committed"
	}
	switch r.Reason {
	case ReasonInvalidToken:
		return "Rejected:InvalidToken"
	case ReasonAlreadyCheckedIn:
		return "Rejected:AlreadyCheckedIn"
	}
	return "Rejected"
}

type CheckInRequest struct {
	Scan string `json:"scan" binding:"required"`
}
