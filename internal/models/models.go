package models

import (
	"encoding/json"
	"errors"
	"time"
)

// User represents an account held by the simulated VidFriends API.
type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CatalogVideo is a video record as stored by the simulated API. ProviderID
// never leaves the service; clients only see the derived embed URL.
type CatalogVideo struct {
	ID           string
	Title        string
	Description  string
	ThumbnailURL string
	ProviderID   string
	Active       bool
}

// Profile is the authenticated user's account as returned by GET /auth/me.
type Profile struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// VideoSummary is a dashboard list entry.
type VideoSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// VideoDetail describes a single playable video. VideoURL is an opaque
// embeddable location and must be forwarded untouched.
type VideoDetail struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	VideoURL     string `json:"video_url"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the success body of POST /auth/login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// MessageResponse carries the human readable outcome of write endpoints.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
}

// SignupResult reports the outcome of a signup call.
type SignupResult struct {
	Message string
	// Authenticated is set when the server returned a token and it was persisted.
	Authenticated bool
}

var (
	errMissingID       = errors.New("missing id")
	errMissingEmail    = errors.New("missing email")
	errMissingVideoURL = errors.New("missing video_url")
	errMissingToken    = errors.New("missing access_token")
)

// Validate reports whether the profile carries the fields the client relies on.
func (p Profile) Validate() error {
	if p.Email == "" {
		return errMissingEmail
	}
	return nil
}

// Validate reports whether the summary can be identified.
func (v VideoSummary) Validate() error {
	if v.ID == "" {
		return errMissingID
	}
	return nil
}

// Validate reports whether the detail is playable.
func (v VideoDetail) Validate() error {
	if v.ID == "" {
		return errMissingID
	}
	if v.VideoURL == "" {
		return errMissingVideoURL
	}
	return nil
}

// Validate reports whether a token was issued.
func (t TokenResponse) Validate() error {
	if t.AccessToken == "" {
		return errMissingToken
	}
	return nil
}

// The API identifies records by "_id"; "id" is accepted as well.

// UnmarshalJSON implements json.Unmarshaler.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var raw struct {
		plain
		LegacyID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Profile(raw.plain)
	if p.ID == "" {
		p.ID = raw.LegacyID
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *VideoSummary) UnmarshalJSON(data []byte) error {
	type plain VideoSummary
	var raw struct {
		plain
		LegacyID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = VideoSummary(raw.plain)
	if v.ID == "" {
		v.ID = raw.LegacyID
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *VideoDetail) UnmarshalJSON(data []byte) error {
	type plain VideoDetail
	var raw struct {
		plain
		LegacyID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = VideoDetail(raw.plain)
	if v.ID == "" {
		v.ID = raw.LegacyID
	}
	return nil
}
