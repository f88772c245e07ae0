package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"audit-hub/internal/domain"
)

// Phase is the controller's lifecycle state.
type Phase string

const (
	// PhaseUninitialized means no hydration has happened yet.
	PhaseUninitialized Phase = "uninitialized"
	// PhaseHydrating means cached state is loaded and the live gateway
	// fetch has not yet settled. Cached state is served so callers never
	// observe a spurious logged-out flash.
	PhaseHydrating Phase = "hydrating"
	// PhaseAuthenticated means a live session is confirmed.
	PhaseAuthenticated Phase = "authenticated"
	// PhaseUnauthenticated means there is no session.
	PhaseUnauthenticated Phase = "unauthenticated"
)

// ProfileResolver fetches profile and role records for a user, degrading to
// nil/empty instead of failing.
type ProfileResolver interface {
	Resolve(ctx context.Context, userID string) (*domain.UserProfile, []domain.UserRole)
}

// Controller owns the canonical in-memory session, identity, profile and
// role state for this hub instance. It is explicitly constructed and torn
// down; nothing here is package-level.
//
// The controller holds exactly one subscription to the auth event stream.
// Events update identity and session synchronously; profile and role
// resolution runs asynchronously and is tagged with a generation so a slow
// resolution for an old session can never overwrite a newer one.
type Controller struct {
	validator domain.SessionValidator
	resolver  ProfileResolver
	snapshots domain.SnapshotStore
	broker    *Broker
	logger    *slog.Logger

	mu       sync.RWMutex
	phase    Phase
	session  *domain.Session
	identity *domain.Identity
	profile  *domain.UserProfile
	roles    []domain.UserRole
	gen      uint64
	cancel   context.CancelFunc
}

// NewController builds a controller and synchronously hydrates it from the
// snapshot store, before any network round-trip.
func NewController(validator domain.SessionValidator, resolver ProfileResolver, snapshots domain.SnapshotStore, broker *Broker, logger *slog.Logger) *Controller {
	c := &Controller{
		validator: validator,
		resolver:  resolver,
		snapshots: snapshots,
		broker:    broker,
		logger:    logger,
		phase:     PhaseUninitialized,
	}
	c.hydrate()
	return c
}

// hydrate loads the durable snapshot into memory. The snapshot is a stale
// mirror: it is served until the live reconcile in Run overwrites it.
func (c *Controller) hydrate() {
	snap := c.snapshots.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	if snap.Session == nil {
		c.phase = PhaseUnauthenticated
		return
	}

	c.session = snap.Session
	c.profile = snap.Profile
	c.roles = snap.Roles
	c.phase = PhaseHydrating
}

// Run reconciles cached state against the live gateway session, then
// consumes auth-change events until ctx ends or the broker closes.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	events, unsubscribe := c.broker.Subscribe()
	defer unsubscribe()

	c.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			c.handleEvent(ctx, event)
		}
	}
}

// Close stops Run. Safe to call before Run or more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// reconcile validates the cached session against the gateway and overwrites
// cached state with the live answer. Gateway outages keep serving the
// cached mirror; definitive auth failures clear it.
func (c *Controller) reconcile(ctx context.Context) {
	c.mu.RLock()
	cached := c.session
	c.mu.RUnlock()

	if cached == nil || cached.Token == "" {
		c.clearState()
		return
	}

	identity, err := c.validator.ValidateSession(ctx, cached.Token)
	if err != nil {
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			c.logger.WarnContext(ctx, "session reconcile deferred, gateway unreachable", "error", err)
			return
		}
		c.logger.InfoContext(ctx, "cached session no longer valid, clearing", "error", err)
		c.clearState()
		return
	}

	c.mu.Lock()
	c.identity = identity
	c.phase = PhaseAuthenticated
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.persist()
	go c.resolve(ctx, gen, identity.UserID, identity.SessionID)
}

// handleEvent applies one auth-change event. Identity and session update
// synchronously; resolution is deferred to its own goroutine so the event
// loop never re-enters the gateway client from within dispatch.
func (c *Controller) handleEvent(ctx context.Context, event domain.AuthEvent) {
	switch event.Kind {
	case domain.AuthSignedIn, domain.AuthTokenRefreshed:
		if event.Identity == nil {
			c.logger.WarnContext(ctx, "auth event without identity ignored", "kind", string(event.Kind))
			return
		}

		c.mu.Lock()
		sess := event.Session
		c.session = &sess
		c.identity = event.Identity
		c.phase = PhaseAuthenticated
		c.gen++
		gen := c.gen
		c.mu.Unlock()

		c.persist()
		go c.resolve(ctx, gen, event.Identity.UserID, event.Session.ID)

	case domain.AuthSignedOut:
		c.clearState()
	}
}

// resolve runs the profile/role resolver for one generation and applies the
// result only if that generation is still current.
func (c *Controller) resolve(ctx context.Context, gen uint64, userID, sessionID string) {
	profile, roles := c.resolver.Resolve(ctx, userID)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "discarding stale profile resolution",
			"session_id", sessionID,
			"generation", gen)
		return
	}
	c.profile = profile
	c.roles = roles
	c.mu.Unlock()

	c.persist()
}

// SetProfile republishes a canonical profile (after an update) and persists.
func (c *Controller) SetProfile(profile *domain.UserProfile) {
	c.mu.Lock()
	c.profile = profile
	c.mu.Unlock()
	c.persist()
}

// Clear drops all auth state and removes the snapshot keys synchronously.
// Sign-out calls this directly instead of waiting for its own event, so
// callers observe cleared state the moment SignOut returns.
func (c *Controller) Clear() {
	c.clearState()
}

func (c *Controller) clearState() {
	c.mu.Lock()
	c.session = nil
	c.identity = nil
	c.profile = nil
	c.roles = nil
	c.phase = PhaseUnauthenticated
	c.gen++
	c.mu.Unlock()

	c.persist()
}

// persist mirrors current state to the snapshot store. Persistence failures
// are logged, not surfaced: the durable mirror is best-effort by contract.
func (c *Controller) persist() {
	c.mu.RLock()
	session, profile, roles := c.session, c.profile, c.roles
	c.mu.RUnlock()

	if err := c.snapshots.Persist(session, profile, roles); err != nil {
		c.logger.Warn("failed to persist auth snapshot", "error", err)
	}
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Session returns a copy of the current session, or nil.
func (c *Controller) Session() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Identity returns a copy of the current identity, or nil.
func (c *Controller) Identity() *domain.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// Profile returns a copy of the current profile, or nil.
func (c *Controller) Profile() *domain.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	return &p
}

// Roles returns a copy of the current role grants.
func (c *Controller) Roles() []domain.UserRole {
	c.mu.RLock()
	defer c.mu.RUnlock()
	roles := make([]domain.UserRole, len(c.roles))
	copy(roles, c.roles)
	return roles
}

// UserType resolves the effective account type from current role grants.
func (c *Controller) UserType() domain.UserType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.PrimaryUserType(c.roles)
}

// HasRole reports whether an active grant with the given role exists.
func (c *Controller) HasRole(role domain.UserType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.HasRole(c.roles, role)
}
