// Package session owns the client's single bearer token slot.
//
// The token is opaque: it is stored and forwarded, never decoded. Reads always
// go through the backing TokenStore so that the most recently written token
// wins, even when another process or another part of the program logged in or
// out in the meantime.
package session

import (
	"context"
	"errors"
	"strings"
)

// DefaultSlot is the fixed name the token is stored under.
const DefaultSlot = "token"

// ErrEmptyToken is returned when an empty credential is offered for storage.
var ErrEmptyToken = errors.New("session: token must not be empty")

// TokenStore persists the single token slot.
//
// Load returns an empty string and a nil error when no token is stored.
// Clear must succeed when the slot is already empty.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// State is the client's authentication state.
type State int

const (
	Anonymous State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Info is a point-in-time view of the session.
type Info struct {
	State State
	Token string
}

func infoFor(token string) Info {
	if token == "" {
		return Info{State: Anonymous}
	}
	return Info{State: Authenticated, Token: token}
}

// Session is the explicit owner of the token slot.
type Session struct {
	store TokenStore
}

// New returns a Session backed by store.
func New(store TokenStore) *Session {
	if store == nil {
		panic("session: token store must not be nil")
	}
	return &Session{store: store}
}

// Token reads the current token from the store.
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// Current reports the session as currently persisted.
func (s *Session) Current(ctx context.Context) (Info, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return Info{}, err
	}
	return infoFor(token), nil
}

// Establish persists token, moving the session to Authenticated.
func (s *Session) Establish(ctx context.Context, token string) (Info, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Info{}, ErrEmptyToken
	}
	if err := s.store.Save(ctx, token); err != nil {
		return Info{}, err
	}
	return infoFor(token), nil
}

// End clears the token slot. Ending an anonymous session is a no-op.
func (s *Session) End(ctx context.Context) error {
	return s.store.Clear(ctx)
}
