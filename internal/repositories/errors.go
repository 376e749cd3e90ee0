package repositories

import (
	"errors"

	"github.com/vidfriends/client/internal/session"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

func slotOrDefault(slot string) string {
	if slot == "" {
		return session.DefaultSlot
	}
	return slot
}
