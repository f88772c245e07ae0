package usecase

import (
	"context"
	"log/slog"
	"time"

	"audit-hub/internal/domain"
)

// SignIn authenticates credentials against the identity provider and
// announces the new session on the auth event stream. State updates flow
// through the event, never imperatively from here.
type SignIn struct {
	auth   domain.Authenticator
	events domain.EventPublisher
	logger *slog.Logger
}

// NewSignIn creates a new SignIn usecase.
func NewSignIn(a domain.Authenticator, e domain.EventPublisher, l *slog.Logger) *SignIn {
	return &SignIn{auth: a, events: e, logger: l}
}

// Execute runs the password login flow.
func (uc *SignIn) Execute(ctx context.Context, email, password string) (domain.Session, *domain.Identity, error) {
	session, identity, err := uc.auth.SignIn(ctx, email, password)
	if err != nil {
		return domain.Session{}, nil, err
	}

	uc.events.Publish(domain.AuthEvent{
		Kind:     domain.AuthSignedIn,
		Session:  session,
		Identity: identity,
		At:       time.Now(),
	})

	uc.logger.InfoContext(ctx, "user signed in", "user_id", identity.UserID)
	return session, identity, nil
}
