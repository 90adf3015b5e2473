package models

import (
	"time"

	"pocketledger/internal/uuid"
)

// Base contains the fields every stored record carries.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrepareCreate assigns a UUIDv7 when the record has no id yet and stamps
// both timestamps.
func (b *Base) PrepareCreate(now time.Time) {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Touch stamps UpdatedAt.
func (b *Base) Touch(now time.Time) {
	b.UpdatedAt = now
}
