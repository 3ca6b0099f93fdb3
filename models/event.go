package models

import (
	"time"
)

// Event is owned outside the check-in core; it is only ever read here.
type Event struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
