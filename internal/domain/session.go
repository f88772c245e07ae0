package domain

import "time"

// Session is a read-only mirror of the identity provider's session.
// The provider owns the credential; the hub never mints or extends it.
type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

// Identity represents an authenticated user identity from the identity provider.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
	CreatedAt time.Time
	Traits    map[string]any
}

// CachedSession holds validated-session data stored in the request-path cache.
type CachedSession struct {
	UserID   string
	Email    string
	UserType UserType
}

// Expired reports whether the session's expiry has passed.
// Sessions without an expiry are treated as live; the provider decides.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
