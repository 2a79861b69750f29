package domain

import (
	"time"

	"github.com/google/uuid"
)

// EditSession holds the original snapshot a client loaded for editing.
// It is the baseline a later reconciliation diffs against.
type EditSession struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Original  Snapshot  `json:"original"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEditSession creates a session with a fresh identifier
func NewEditSession(actor string, original Snapshot) *EditSession {
	return &EditSession{
		ID:        uuid.New().String(),
		Actor:     actor,
		Original:  original,
		CreatedAt: time.Now().UTC(),
	}
}

// Ref returns the table the session edits
func (s *EditSession) Ref() TableRef {
	return s.Original.Ref()
}
