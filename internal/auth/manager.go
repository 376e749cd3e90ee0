// Package auth issues and verifies the access tokens handed out by the
// simulated VidFriends API. Clients never look inside these tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken indicates the presented token is malformed, forged or expired.
	ErrInvalidToken = errors.New("invalid token")
)

// DefaultAccessTTL mirrors the lifetime the production API grants.
const DefaultAccessTTL = 24 * time.Hour

// Manager signs HS256 access tokens whose subject is the user id.
type Manager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewManager constructs a Manager. A non-positive ttl selects DefaultAccessTTL.
func NewManager(secret []byte, accessTTL time.Duration) *Manager {
	if len(secret) == 0 {
		panic("auth: signing secret must not be empty")
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	return &Manager{
		secret:    secret,
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// WithNowFunc allows tests to override the time source.
func (m *Manager) WithNowFunc(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue creates a signed access token for userID.
func (m *Manager) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user id must be provided")
	}

	now := m.now().UTC()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and lifetime and returns its subject.
func (m *Manager) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
