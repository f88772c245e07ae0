package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audit-hub/internal/domain"
	"audit-hub/internal/infrastructure/cache"
	"audit-hub/internal/offers"
	"audit-hub/internal/usecase"
)

// Fakes over the domain ports. Handlers are tested through real usecases;
// only the gateway edges are stubbed.

type stubValidator struct {
	identity *domain.Identity
	err      error
	called   bool
}

func (s *stubValidator) ValidateSession(_ context.Context, _ string) (*domain.Identity, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

type stubRoleStore struct {
	grants []domain.UserRole
}

func (s *stubRoleStore) ListRoles(_ context.Context, _ string) ([]domain.UserRole, error) {
	return s.grants, nil
}

func (s *stubRoleStore) GrantRole(_ context.Context, _ domain.UserRole) error { return nil }

type stubAuthenticator struct {
	session  domain.Session
	identity *domain.Identity
	err      error
}

func (s *stubAuthenticator) SignIn(_ context.Context, _, _ string) (domain.Session, *domain.Identity, error) {
	if s.err != nil {
		return domain.Session{}, nil, s.err
	}
	return s.session, s.identity, nil
}

func (s *stubAuthenticator) SignUp(_ context.Context, _, _ string, _ map[string]any) (domain.Session, *domain.Identity, error) {
	if s.err != nil {
		return domain.Session{}, nil, s.err
	}
	return s.session, s.identity, nil
}

func (s *stubAuthenticator) SignOut(_ context.Context, _ string) error { return s.err }

type stubPublisher struct {
	events []domain.AuthEvent
}

func (s *stubPublisher) Publish(event domain.AuthEvent) { s.events = append(s.events, event) }

type stubOfferStore struct {
	offers map[string]domain.EngagementOffer
	order  []string
}

func newStubOfferStore() *stubOfferStore {
	return &stubOfferStore{offers: make(map[string]domain.EngagementOffer)}
}

func (s *stubOfferStore) InsertOffer(_ context.Context, offer domain.EngagementOffer) error {
	s.offers[offer.ID] = offer
	s.order = append(s.order, offer.ID)
	return nil
}

func (s *stubOfferStore) GetOffer(_ context.Context, id string) (*domain.EngagementOffer, error) {
	o, ok := s.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	return &o, nil
}

func (s *stubOfferStore) DecideOffer(_ context.Context, id string, status domain.OfferStatus) (*domain.EngagementOffer, error) {
	o, ok := s.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	if o.Status.Terminal() {
		return nil, domain.ErrOfferTerminal
	}
	o.Status = status
	s.offers[id] = o
	return &o, nil
}

func (s *stubOfferStore) ListThread(_ context.Context, auditRequestID string) ([]domain.EngagementOffer, error) {
	var thread []domain.EngagementOffer
	for _, id := range s.order {
		if o := s.offers[id]; o.AuditRequestID == auditRequestID {
			thread = append(thread, o)
		}
	}
	return thread, nil
}

type stubNotificationStore struct {
	inserted []domain.Notification
}

func (s *stubNotificationStore) InsertNotification(_ context.Context, n domain.Notification) error {
	s.inserted = append(s.inserted, n)
	return nil
}

func (s *stubNotificationStore) ListNotifications(_ context.Context, _ string, _ int) ([]domain.Notification, error) {
	return s.inserted, nil
}

type stubKicker struct{ kicked []string }

func (s *stubKicker) Kick(auditRequestID string) { s.kicked = append(s.kicked, auditRequestID) }

func newValidateUsecase(t *testing.T, validator domain.SessionValidator, grants []domain.UserRole) (*usecase.ValidateSession, *cache.SessionCache) {
	t.Helper()
	sessionCache := cache.NewSessionCache(5 * time.Minute)
	t.Cleanup(sessionCache.Close)
	uc := usecase.NewValidateSession(validator, &stubRoleStore{grants: grants}, sessionCache, slog.Default())
	return uc, sessionCache
}

func newEchoContext(method, target string, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestValidateHandler_CacheHit(t *testing.T) {
	validator := &stubValidator{}
	uc, sessionCache := newValidateUsecase(t, validator, nil)
	sessionCache.Set("token-123", domain.CachedSession{
		UserID:   "user-456",
		Email:    "user@example.com",
		UserType: domain.UserTypeAuditor,
	})

	h := NewValidateHandler(uc)
	c, rec := newEchoContext(http.MethodGet, "/validate", "")
	c.Request().Header.Set(sessionTokenHeader, "token-123")

	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-456", rec.Header().Get("X-Audit-User-Id"))
	assert.Equal(t, "user@example.com", rec.Header().Get("X-Audit-User-Email"))
	assert.Equal(t, "auditor", rec.Header().Get("X-Audit-User-Type"))
	assert.False(t, validator.called, "provider must not be reached on cache hit")
}

func TestValidateHandler_CookieFallback(t *testing.T) {
	validator := &stubValidator{identity: &domain.Identity{UserID: "user-456", Email: "user@example.com"}}
	uc, _ := newValidateUsecase(t, validator, nil)

	h := NewValidateHandler(uc)
	c, rec := newEchoContext(http.MethodGet, "/validate", "")
	c.Request().AddCookie(&http.Cookie{Name: sessionCookieName, Value: "token-123"})

	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, validator.called)
	assert.Equal(t, "general", rec.Header().Get("X-Audit-User-Type"))
}

func TestValidateHandler_NoCredential(t *testing.T) {
	uc, _ := newValidateUsecase(t, &stubValidator{}, nil)
	h := NewValidateHandler(uc)

	c, _ := newEchoContext(http.MethodGet, "/validate", "")
	err := h.Handle(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestValidateHandler_ExpiredSession(t *testing.T) {
	uc, _ := newValidateUsecase(t, &stubValidator{err: domain.ErrSessionExpired}, nil)
	h := NewValidateHandler(uc)

	c, _ := newEchoContext(http.MethodGet, "/validate", "")
	c.Request().Header.Set(sessionTokenHeader, "token-123")
	err := h.Handle(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthHandler_SignIn(t *testing.T) {
	auth := &stubAuthenticator{
		session: domain.Session{
			ID:        "sess-1",
			Token:     "token-1",
			ExpiresAt: time.Now().Add(time.Hour),
		},
		identity: &domain.Identity{UserID: "user-456", Email: "user@example.com"},
	}
	events := &stubPublisher{}
	h := NewAuthHandler(
		usecase.NewSignIn(auth, events, slog.Default()),
		nil, nil, nil, nil,
	)

	c, rec := newEchoContext(http.MethodPost, "/auth/signin",
		`{"email":"user@example.com","password":"hunter2"}`)

	require.NoError(t, h.HandleSignIn(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "user-456", resp["userId"])

	require.Len(t, events.events, 1)
	assert.Equal(t, domain.AuthSignedIn, events.events[0].Kind)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Equal(t, "token-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAuthHandler_SignIn_MissingFields(t *testing.T) {
	h := NewAuthHandler(usecase.NewSignIn(&stubAuthenticator{}, &stubPublisher{}, slog.Default()),
		nil, nil, nil, nil)

	c, _ := newEchoContext(http.MethodPost, "/auth/signin", `{"email":"user@example.com"}`)
	err := h.HandleSignIn(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

type stubStateClearer struct {
	cleared int
}

func (s *stubStateClearer) Clear() { s.cleared++ }

func TestAuthHandler_SignOut_RemoteFailure(t *testing.T) {
	auth := &stubAuthenticator{err: domain.ErrGatewayUnavailable}
	clearer := &stubStateClearer{}
	sessionCache := cache.NewSessionCache(5 * time.Minute)
	t.Cleanup(sessionCache.Close)
	h := NewAuthHandler(nil, nil,
		usecase.NewSignOut(auth, sessionCache, clearer, &stubPublisher{}, slog.Default()),
		nil, nil)

	c, rec := newEchoContext(http.MethodPost, "/auth/signout", "")
	c.Request().Header.Set(sessionTokenHeader, "token-1")

	err := h.HandleSignOut(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.Code)

	// Local state is gone and the cookie is cleared even when the
	// provider-side revoke fails.
	assert.Equal(t, 1, clearer.cleared)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestAuthHandler_SignIn_BadCredentials(t *testing.T) {
	auth := &stubAuthenticator{err: domain.ErrAuthFailed}
	h := NewAuthHandler(usecase.NewSignIn(auth, &stubPublisher{}, slog.Default()),
		nil, nil, nil, nil)

	c, _ := newEchoContext(http.MethodPost, "/auth/signin",
		`{"email":"user@example.com","password":"wrong"}`)
	err := h.HandleSignIn(c)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestOfferHandler_CreateAndThread(t *testing.T) {
	uc, sessionCache := newValidateUsecase(t, &stubValidator{}, nil)
	sessionCache.Set("token-123", domain.CachedSession{UserID: "auditor-1", UserType: domain.UserTypeAuditor})

	store := newStubOfferStore()
	notifications := &stubNotificationStore{}
	kicker := &stubKicker{}
	h := NewOfferHandler(uc,
		usecase.NewCreateOffer(store, notifications, kicker, slog.Default()),
		usecase.NewCounterOffer(store, notifications, kicker, slog.Default()),
		usecase.NewDecideOffer(store, notifications, kicker, slog.Default()),
		usecase.NewGetOfferThread(store, slog.Default()),
		nil,
	)

	c, rec := newEchoContext(http.MethodPost, "/offers",
		`{"auditRequestId":"audit-1","auditorId":"auditor-1","clientId":"client-1","scope":"full audit","price":"5000","timelineDays":"14"}`)
	c.Request().Header.Set(sessionTokenHeader, "token-123")

	require.NoError(t, h.HandleCreate(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created offerView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 5000.0, created.Price)
	assert.Equal(t, []string{"audit-1"}, kicker.kicked)
	require.Len(t, notifications.inserted, 1)
	assert.Equal(t, "client-1", notifications.inserted[0].UserID)

	// Thread listing returns the new offer.
	tc, trec := newEchoContext(http.MethodGet, "/audits/audit-1/offers", "")
	tc.Request().Header.Set(sessionTokenHeader, "token-123")
	tc.SetParamNames("auditID")
	tc.SetParamValues("audit-1")

	require.NoError(t, h.HandleThread(tc))
	assert.Equal(t, http.StatusOK, trec.Code)

	var thread struct {
		Offers []offerView `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(trec.Body.Bytes(), &thread))
	require.Len(t, thread.Offers, 1)
	assert.Equal(t, created.ID, thread.Offers[0].ID)
}

func TestOfferHandler_InvalidTerms(t *testing.T) {
	uc, sessionCache := newValidateUsecase(t, &stubValidator{}, nil)
	sessionCache.Set("token-123", domain.CachedSession{UserID: "auditor-1"})

	store := newStubOfferStore()
	h := NewOfferHandler(uc,
		usecase.NewCreateOffer(store, &stubNotificationStore{}, &stubKicker{}, slog.Default()),
		nil, nil, nil, nil,
	)

	c, _ := newEchoContext(http.MethodPost, "/offers",
		`{"auditRequestId":"audit-1","scope":"","price":"-5","timelineDays":"14"}`)
	c.Request().Header.Set(sessionTokenHeader, "token-123")

	err := h.HandleCreate(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestOfferHandler_DoubleDecisionConflicts(t *testing.T) {
	uc, sessionCache := newValidateUsecase(t, &stubValidator{}, nil)
	sessionCache.Set("token-123", domain.CachedSession{UserID: "client-1"})

	store := newStubOfferStore()
	require.NoError(t, store.InsertOffer(context.Background(), domain.EngagementOffer{
		ID:             "offer-1",
		AuditRequestID: "audit-1",
		AuditorID:      "auditor-1",
		ClientID:       "client-1",
		Status:         domain.OfferPending,
	}))

	h := NewOfferHandler(uc, nil, nil,
		usecase.NewDecideOffer(store, &stubNotificationStore{}, &stubKicker{}, slog.Default()),
		nil, nil,
	)

	c, rec := newEchoContext(http.MethodPost, "/offers/offer-1/decision", `{"decision":"accepted"}`)
	c.Request().Header.Set(sessionTokenHeader, "token-123")
	c.SetParamNames("id")
	c.SetParamValues("offer-1")
	require.NoError(t, h.HandleDecision(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c2, _ := newEchoContext(http.MethodPost, "/offers/offer-1/decision", `{"decision":"rejected"}`)
	c2.Request().Header.Set(sessionTokenHeader, "token-123")
	c2.SetParamNames("id")
	c2.SetParamValues("offer-1")
	err := h.HandleDecision(c2)

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
}

func TestOfferHandler_StreamDeliversSnapshots(t *testing.T) {
	uc, sessionCache := newValidateUsecase(t, &stubValidator{}, nil)
	sessionCache.Set("token-123", domain.CachedSession{UserID: "client-1", UserType: domain.UserTypeProjectOwner})

	store := newStubOfferStore()
	require.NoError(t, store.InsertOffer(context.Background(), domain.EngagementOffer{
		ID:             "offer-1",
		AuditRequestID: "audit-1",
		AuditorID:      "auditor-1",
		ClientID:       "client-1",
		Terms:          domain.OfferTerms{Scope: "full audit", Price: 5000, TimelineDays: 14},
		Status:         domain.OfferPending,
	}))

	tracker := offers.NewTracker(store, time.Millisecond, 8*time.Millisecond, slog.Default())
	t.Cleanup(tracker.Close)

	h := NewOfferHandler(uc, nil, nil, nil, nil, tracker)

	e := echo.New()
	e.GET("/audits/:auditID/offers/stream", h.HandleStream)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/audits/audit-1/offers/stream", nil)
	require.NoError(t, err)
	req.Header.Set(sessionTokenHeader, "token-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))

	// Read until the first complete event arrives; closing the body then
	// disconnects the stream.
	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if after, ok := strings.CutPrefix(line, "event: "); ok {
			event = strings.TrimSpace(after)
		}
		if after, ok := strings.CutPrefix(line, "data: "); ok {
			data = after
		}
	}
	assert.Equal(t, "thread", event)

	var snap threadEvent
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	assert.Equal(t, "audit-1", snap.AuditRequestID)
	require.Len(t, snap.Offers, 1)
	assert.Equal(t, "offer-1", snap.Offers[0].ID)
}

func TestNotificationHandler_List(t *testing.T) {
	uc, sessionCache := newValidateUsecase(t, &stubValidator{}, nil)
	sessionCache.Set("token-123", domain.CachedSession{UserID: "client-1", UserType: domain.UserTypeProjectOwner})

	notifications := &stubNotificationStore{inserted: []domain.Notification{
		{ID: "n-1", UserID: "client-1", Kind: domain.NotifyOfferReceived, Title: "New offer"},
	}}
	h := NewNotificationHandler(uc, usecase.NewListNotifications(notifications, slog.Default()))

	c, rec := newEchoContext(http.MethodGet, "/notifications", "")
	c.Request().Header.Set(sessionTokenHeader, "token-123")

	require.NoError(t, h.HandleList(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notifications []notificationView `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "n-1", resp.Notifications[0].ID)
	assert.Equal(t, domain.NotifyOfferReceived, resp.Notifications[0].Kind)
}

func TestNotificationHandler_RequiresSession(t *testing.T) {
	uc, _ := newValidateUsecase(t, &stubValidator{err: domain.ErrSessionNotFound}, nil)
	h := NewNotificationHandler(uc, usecase.NewListNotifications(&stubNotificationStore{}, slog.Default()))

	c, _ := newEchoContext(http.MethodGet, "/notifications", "")

	err := h.HandleList(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(nil)

	c, rec := newEchoContext(http.MethodGet, "/health", "")
	require.NoError(t, h.Handle(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
