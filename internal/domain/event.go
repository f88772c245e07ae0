package domain

import "time"

// AuthEventKind identifies an auth-change event on the gateway stream.
type AuthEventKind string

const (
	AuthSignedIn       AuthEventKind = "signed_in"
	AuthSignedOut      AuthEventKind = "signed_out"
	AuthTokenRefreshed AuthEventKind = "token_refreshed"
)

// AuthEvent is one auth-change notification. Identity is nil on sign-out.
type AuthEvent struct {
	Kind     AuthEventKind
	Session  Session
	Identity *Identity
	At       time.Time
}
