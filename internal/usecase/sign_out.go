package usecase

import (
	"context"
	"log/slog"
	"time"

	"audit-hub/internal/domain"
)

// StateClearer drops all locally held auth state synchronously.
type StateClearer interface {
	Clear()
}

// SignOut ends a session. Local state is cleared first, synchronously, so
// the caller observes signed-out state the moment this returns; the remote
// revocation is attempted afterwards and its failure does not resurrect
// the session.
type SignOut struct {
	auth    domain.Authenticator
	cache   domain.SessionCache
	state   StateClearer
	events  domain.EventPublisher
	logger  *slog.Logger
}

// NewSignOut creates a new SignOut usecase.
func NewSignOut(a domain.Authenticator, c domain.SessionCache, s StateClearer, e domain.EventPublisher, l *slog.Logger) *SignOut {
	return &SignOut{auth: a, cache: c, state: s, events: e, logger: l}
}

// Execute clears local state and revokes the session at the provider. The
// local clear always happens and is never rolled back; a failed remote
// revoke is returned so the caller can surface it, with the session left
// for provider-side expiry.
func (uc *SignOut) Execute(ctx context.Context, token string) error {
	uc.state.Clear()
	if token != "" {
		uc.cache.Invalidate(token)
	}

	uc.events.Publish(domain.AuthEvent{
		Kind: domain.AuthSignedOut,
		At:   time.Now(),
	})

	if token == "" {
		return nil
	}
	if err := uc.auth.SignOut(ctx, token); err != nil {
		uc.logger.WarnContext(ctx, "remote sign-out failed, local state already cleared", "error", err)
		return err
	}
	return nil
}
