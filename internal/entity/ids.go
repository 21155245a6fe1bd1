package entity

import (
	"github.com/google/uuid"
)

// NewID returns a fresh, time-ordered identifier for a client-side entity.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// V7 only fails when the random source fails; fall back to V4.
		return uuid.NewString()
	}
	return id.String()
}
