package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"

	"audit-hub/internal/domain"
)

// Shared hand-rolled mocks for the usecase tests. Each mock records enough
// of its inputs to assert on interaction, nothing more.

type mockValidator struct {
	identity *domain.Identity
	err      error
	called   bool
	token    string
}

func (m *mockValidator) ValidateSession(_ context.Context, token string) (*domain.Identity, error) {
	m.called = true
	m.token = token
	if m.err != nil {
		return nil, m.err
	}
	return m.identity, nil
}

type mockCache struct {
	entries     map[string]domain.CachedSession
	invalidated []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]domain.CachedSession)}
}

func (m *mockCache) Get(sessionID string) (*domain.CachedSession, bool) {
	entry, found := m.entries[sessionID]
	if !found {
		return nil, false
	}
	return &entry, true
}

func (m *mockCache) Set(sessionID string, session domain.CachedSession) {
	m.entries[sessionID] = session
}

func (m *mockCache) Invalidate(sessionID string) {
	delete(m.entries, sessionID)
	m.invalidated = append(m.invalidated, sessionID)
}

type mockProfileStore struct {
	mu       sync.Mutex
	profiles map[string]domain.UserProfile
	getErr   error
	upErr    error
	patchErr error
	upserts  int
	patches  []domain.ProfilePatch
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: make(map[string]domain.UserProfile)}
}

func (m *mockProfileStore) GetProfile(_ context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (m *mockProfileStore) UpsertProfile(_ context.Context, profile domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upErr != nil {
		return m.upErr
	}
	m.profiles[profile.UserID] = profile
	m.upserts++
	return nil
}

func (m *mockProfileStore) PatchProfile(_ context.Context, userID string, patch domain.ProfilePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.patchErr != nil {
		return m.patchErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Specializations != nil {
		p.Specializations = *patch.Specializations
	}
	if patch.AvatarKey != nil {
		p.AvatarKey = *patch.AvatarKey
	}
	m.profiles[userID] = p
	m.patches = append(m.patches, patch)
	return nil
}

type mockRoleStore struct {
	mu      sync.Mutex
	grants  map[string][]domain.UserRole
	listErr error
	grantEr error
	granted []domain.UserRole
}

func newMockRoleStore() *mockRoleStore {
	return &mockRoleStore{grants: make(map[string][]domain.UserRole)}
}

func (m *mockRoleStore) ListRoles(_ context.Context, userID string) ([]domain.UserRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.grants[userID], nil
}

func (m *mockRoleStore) GrantRole(_ context.Context, role domain.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.grantEr != nil {
		return m.grantEr
	}
	m.grants[role.UserID] = append(m.grants[role.UserID], role)
	m.granted = append(m.granted, role)
	return nil
}

type mockAuthenticator struct {
	session    domain.Session
	identity   *domain.Identity
	err        error
	signOutErr error
	signedOut  []string
}

func (m *mockAuthenticator) SignIn(_ context.Context, _, _ string) (domain.Session, *domain.Identity, error) {
	if m.err != nil {
		return domain.Session{}, nil, m.err
	}
	return m.session, m.identity, nil
}

func (m *mockAuthenticator) SignUp(_ context.Context, _, _ string, _ map[string]any) (domain.Session, *domain.Identity, error) {
	if m.err != nil {
		return domain.Session{}, nil, m.err
	}
	return m.session, m.identity, nil
}

func (m *mockAuthenticator) SignOut(_ context.Context, token string) error {
	m.signedOut = append(m.signedOut, token)
	return m.signOutErr
}

type mockPasswordManager struct {
	recoveryErr error
	changeErr   error
	recovered   []string
	changed     []string
}

func (m *mockPasswordManager) StartRecovery(_ context.Context, email string) error {
	if m.recoveryErr != nil {
		return m.recoveryErr
	}
	m.recovered = append(m.recovered, email)
	return nil
}

func (m *mockPasswordManager) ChangePassword(_ context.Context, token, _ string) error {
	if m.changeErr != nil {
		return m.changeErr
	}
	m.changed = append(m.changed, token)
	return nil
}

type mockPublisher struct {
	events []domain.AuthEvent
}

func (m *mockPublisher) Publish(event domain.AuthEvent) {
	m.events = append(m.events, event)
}

type mockTokenIssuer struct {
	token string
	err   error
}

func (m *mockTokenIssuer) IssueBackendToken(_ *domain.Identity, _ domain.UserType, _ string) (string, error) {
	return m.token, m.err
}

type mockCSRFGenerator struct {
	token string
	err   error
}

func (m *mockCSRFGenerator) Generate(_ string) (string, error) {
	return m.token, m.err
}

type mockOfferStore struct {
	mu        sync.Mutex
	offers    map[string]domain.EngagementOffer
	insertErr error
	decideErr error
	inserted  []domain.EngagementOffer
}

func newMockOfferStore() *mockOfferStore {
	return &mockOfferStore{offers: make(map[string]domain.EngagementOffer)}
}

func (m *mockOfferStore) InsertOffer(_ context.Context, offer domain.EngagementOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.offers[offer.ID] = offer
	m.inserted = append(m.inserted, offer)
	return nil
}

func (m *mockOfferStore) GetOffer(_ context.Context, id string) (*domain.EngagementOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	return &o, nil
}

func (m *mockOfferStore) DecideOffer(_ context.Context, id string, status domain.OfferStatus) (*domain.EngagementOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decideErr != nil {
		return nil, m.decideErr
	}
	o, ok := m.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	if o.Status.Terminal() {
		return nil, domain.ErrOfferTerminal
	}
	o.Status = status
	m.offers[id] = o
	return &o, nil
}

func (m *mockOfferStore) ListThread(_ context.Context, auditRequestID string) ([]domain.EngagementOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var thread []domain.EngagementOffer
	for _, o := range m.inserted {
		if o.AuditRequestID == auditRequestID {
			thread = append(thread, m.offers[o.ID])
		}
	}
	return thread, nil
}

type mockNotificationStore struct {
	mu       sync.Mutex
	inserted []domain.Notification
	err      error
}

func (m *mockNotificationStore) InsertNotification(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, n)
	return nil
}

func (m *mockNotificationStore) ListNotifications(_ context.Context, userID string, _ int) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.inserted {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

type mockKicker struct {
	kicked []string
}

func (m *mockKicker) Kick(auditRequestID string) {
	m.kicked = append(m.kicked, auditRequestID)
}

type mockProbe struct {
	offline bool
}

func (m *mockProbe) Offline() bool { return m.offline }

type mockClearer struct {
	cleared int
}

func (m *mockClearer) Clear() { m.cleared++ }

type mockProfilePublisher struct {
	identity *domain.Identity
	profile  *domain.UserProfile
	setCalls int
}

func (m *mockProfilePublisher) Identity() *domain.Identity { return m.identity }

func (m *mockProfilePublisher) SetProfile(profile *domain.UserProfile) {
	m.profile = profile
	m.setCalls++
}

type mockObjectStorage struct {
	putErr    error
	removeErr error
	objects   map[string][]byte
	removed   []string
}

func newMockObjectStorage() *mockObjectStorage {
	return &mockObjectStorage{objects: make(map[string][]byte)}
}

func (m *mockObjectStorage) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.objects[key] = buf.Bytes()
	return nil
}

func (m *mockObjectStorage) Remove(_ context.Context, key string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	delete(m.objects, key)
	m.removed = append(m.removed, key)
	return nil
}
