package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"audit-hub/internal/domain"

	kratos "github.com/ory/kratos-client-go"
)

// KratosGateway is the hub's client for the hosted identity provider.
// Implements domain.SessionValidator, domain.Authenticator and
// domain.PasswordManager.
type KratosGateway struct {
	client *kratos.APIClient
}

// NewKratosGateway creates a new Kratos gateway with tuned HTTP transport.
func NewKratosGateway(baseURL string, timeout time.Duration) *KratosGateway {
	configuration := kratos.NewConfiguration()
	configuration.Servers = []kratos.ServerConfiguration{
		{URL: baseURL},
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	configuration.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}

	return &KratosGateway{
		client: kratos.NewAPIClient(configuration),
	}
}

// ValidateSession validates a session token and returns the identity.
func (g *KratosGateway) ValidateSession(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	session, resp, err := g.client.FrontendAPI.ToSession(ctx).XSessionToken(token).Execute()
	if err != nil {
		return nil, mapFlowError(resp, err, domain.ErrAuthFailed)
	}

	if session.Active != nil && !*session.Active {
		return nil, domain.ErrSessionInactive
	}

	if session.Identity == nil {
		return nil, domain.ErrMissingIdentity
	}

	identity := identityFromKratos(*session.Identity)
	identity.SessionID = session.Id
	return identity, nil
}

// SignIn performs a native password login flow. On success the provider's
// session token and identity are returned; the caller publishes the
// auth-change event that drives controller state.
func (g *KratosGateway) SignIn(ctx context.Context, email, password string) (domain.Session, *domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	flow, resp, err := g.client.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return domain.Session{}, nil, mapFlowError(resp, err, domain.ErrAuthFailed)
	}

	body := kratos.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(
		kratos.NewUpdateLoginFlowWithPasswordMethod(email, "password", password),
	)
	login, resp, err := g.client.FrontendAPI.UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(body).
		Execute()
	if err != nil {
		return domain.Session{}, nil, mapFlowError(resp, err, domain.ErrAuthFailed)
	}

	session := sessionFromKratos(login.Session, login.SessionToken)
	if login.Session.Identity == nil {
		return domain.Session{}, nil, domain.ErrMissingIdentity
	}

	identity := identityFromKratos(*login.Session.Identity)
	identity.SessionID = session.ID
	return session, identity, nil
}

// SignUp performs a native password registration flow with the given traits.
func (g *KratosGateway) SignUp(ctx context.Context, email, password string, traits map[string]any) (domain.Session, *domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	flow, resp, err := g.client.FrontendAPI.CreateNativeRegistrationFlow(ctx).Execute()
	if err != nil {
		return domain.Session{}, nil, mapFlowError(resp, err, domain.ErrAuthFailed)
	}

	if traits == nil {
		traits = map[string]any{}
	}
	traits["email"] = email

	body := kratos.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(
		kratos.NewUpdateRegistrationFlowWithPasswordMethod("password", password, traits),
	)
	reg, resp, err := g.client.FrontendAPI.UpdateRegistrationFlow(ctx).
		Flow(flow.Id).
		UpdateRegistrationFlowBody(body).
		Execute()
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusBadRequest {
			return domain.Session{}, nil, fmt.Errorf("%w: %w", domain.ErrEmailTaken, err)
		}
		return domain.Session{}, nil, mapFlowError(resp, err, domain.ErrAuthFailed)
	}

	identity := identityFromKratos(reg.Identity)

	var session domain.Session
	if reg.Session != nil {
		session = sessionFromKratos(*reg.Session, reg.SessionToken)
		identity.SessionID = session.ID
	}
	return session, identity, nil
}

// SignOut revokes the provider session behind the given token.
func (g *KratosGateway) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	resp, err := g.client.FrontendAPI.PerformNativeLogout(ctx).
		PerformNativeLogoutBody(*kratos.NewPerformNativeLogoutBody(token)).
		Execute()
	if err != nil {
		// A 401 means the session is already gone; sign-out is idempotent.
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil
		}
		return mapFlowError(resp, err, domain.ErrAuthFailed)
	}
	return nil
}

// StartRecovery kicks off the provider's recovery (forgot password) flow.
// The provider emails the recovery code; the hub never sees it.
func (g *KratosGateway) StartRecovery(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	flow, resp, err := g.client.FrontendAPI.CreateNativeRecoveryFlow(ctx).Execute()
	if err != nil {
		return mapFlowError(resp, err, domain.ErrGatewayUnavailable)
	}

	method := kratos.UpdateRecoveryFlowWithCodeMethod{
		Email:  kratos.PtrString(email),
		Method: "code",
	}
	_, resp, err = g.client.FrontendAPI.UpdateRecoveryFlow(ctx).
		Flow(flow.Id).
		UpdateRecoveryFlowBody(kratos.UpdateRecoveryFlowWithCodeMethodAsUpdateRecoveryFlowBody(&method)).
		Execute()
	if err != nil {
		return mapFlowError(resp, err, domain.ErrGatewayUnavailable)
	}
	return nil
}

// ChangePassword sets a new password through the provider's settings flow
// for the session behind the given token.
func (g *KratosGateway) ChangePassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrSessionNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	flow, resp, err := g.client.FrontendAPI.CreateNativeSettingsFlow(ctx).XSessionToken(token).Execute()
	if err != nil {
		return mapFlowError(resp, err, domain.ErrAuthFailed)
	}

	body := kratos.UpdateSettingsFlowWithPasswordMethodAsUpdateSettingsFlowBody(
		kratos.NewUpdateSettingsFlowWithPasswordMethod("password", newPassword),
	)
	_, resp, err = g.client.FrontendAPI.UpdateSettingsFlow(ctx).
		Flow(flow.Id).
		XSessionToken(token).
		UpdateSettingsFlowBody(body).
		Execute()
	if err != nil {
		return mapFlowError(resp, err, domain.ErrAuthFailed)
	}
	return nil
}

// mapFlowError translates a provider response into a domain error. Auth
// failures (401/400/403) map to authFailure; anything else means the
// gateway itself misbehaved.
func mapFlowError(resp *http.Response, err error, authFailure error) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusBadRequest, http.StatusForbidden:
			return fmt.Errorf("%w: %w", authFailure, err)
		default:
			return fmt.Errorf("%w: gateway returned status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
		}
	}
	return fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
}

// sessionFromKratos converts a provider session plus optional token into the
// hub's read-only session mirror.
func sessionFromKratos(s kratos.Session, token *string) domain.Session {
	session := domain.Session{ID: s.Id}
	if token != nil {
		session.Token = *token
	}
	if s.ExpiresAt != nil {
		session.ExpiresAt = *s.ExpiresAt
	}
	return session
}

// identityFromKratos extracts the hub's identity view from provider traits.
func identityFromKratos(id kratos.Identity) *domain.Identity {
	identity := &domain.Identity{
		UserID: id.Id,
	}

	if traits, ok := id.Traits.(map[string]interface{}); ok {
		identity.Traits = traits
		if emailVal, ok := traits["email"]; ok {
			if emailStr, ok := emailVal.(string); ok {
				identity.Email = emailStr
			}
		}
	}

	if id.CreatedAt != nil {
		identity.CreatedAt = *id.CreatedAt
	}

	return identity
}
