package domain

import (
	"context"
	"io"
)

// SessionValidator validates a session credential against the identity provider.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*Identity, error)
}

// Authenticator drives the identity provider's credential flows.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (Session, *Identity, error)
	SignUp(ctx context.Context, email, password string, traits map[string]any) (Session, *Identity, error)
	SignOut(ctx context.Context, token string) error
}

// PasswordManager drives the provider's recovery and settings flows.
type PasswordManager interface {
	StartRecovery(ctx context.Context, email string) error
	ChangePassword(ctx context.Context, token, newPassword string) error
}

// ProfileStore reads and writes marketplace profile rows in the gateway's
// table store.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	UpsertProfile(ctx context.Context, profile UserProfile) error
	PatchProfile(ctx context.Context, userID string, patch ProfilePatch) error
}

// RoleStore reads and writes role grant rows.
type RoleStore interface {
	ListRoles(ctx context.Context, userID string) ([]UserRole, error)
	GrantRole(ctx context.Context, role UserRole) error
}

// OfferStore reads and writes engagement offer rows.
type OfferStore interface {
	InsertOffer(ctx context.Context, offer EngagementOffer) error
	GetOffer(ctx context.Context, id string) (*EngagementOffer, error)
	DecideOffer(ctx context.Context, id string, status OfferStatus) (*EngagementOffer, error)
	ListThread(ctx context.Context, auditRequestID string) ([]EngagementOffer, error)
}

// NotificationStore reads and writes notification rows.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)
}

// ObjectStorage stores uploaded marketplace objects (avatars, deliverables).
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
}

// Snapshot is the durable mirror of the last-known auth state. Absent parts
// are nil/empty; the layers above decide what absence means.
type Snapshot struct {
	Session *Session
	Profile *UserProfile
	Roles   []UserRole
}

// SnapshotStore persists the auth snapshot across restarts. Load never
// fails: unreadable keys are reported by the implementation and returned
// as absent.
type SnapshotStore interface {
	Load() Snapshot
	Persist(session *Session, profile *UserProfile, roles []UserRole) error
}

// SessionCache provides read/write access to validated-session data on the
// request path, keyed by the opaque session token presented by the client.
type SessionCache interface {
	Get(token string) (*CachedSession, bool)
	Set(token string, session CachedSession)
	Invalidate(token string)
}

// TokenIssuer generates signed backend JWT tokens for sibling services.
type TokenIssuer interface {
	IssueBackendToken(identity *Identity, userType UserType, sessionID string) (string, error)
}

// CSRFTokenGenerator generates CSRF tokens from session identifiers.
type CSRFTokenGenerator interface {
	Generate(sessionID string) (string, error)
}

// EventPublisher publishes auth-change events to the hub's event stream.
type EventPublisher interface {
	Publish(event AuthEvent)
}

// ConnectivityProbe reports whether the gateway is currently reachable.
// Consulted only to suppress duplicate user-facing warnings, never to
// change retry behavior.
type ConnectivityProbe interface {
	Offline() bool
}
