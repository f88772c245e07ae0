package domain

import "errors"

// Authentication errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrSessionInactive = errors.New("session is not active")
	ErrMissingIdentity = errors.New("missing identity in session")
)

// Sign-up and profile errors.
var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrProvisionIncomplete  = errors.New("account created but profile provisioning incomplete")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrInvalidUserType      = errors.New("invalid user type")
	ErrInvalidProfileUpdate = errors.New("invalid profile update")
)

// Offer negotiation errors.
var (
	ErrOfferNotFound     = errors.New("offer not found")
	ErrOfferTerminal     = errors.New("offer already decided")
	ErrOfferThreadMixed  = errors.New("parent offer belongs to a different audit")
	ErrInvalidOfferTerms = errors.New("invalid offer terms")
)

// Token errors.
var (
	ErrTokenGeneration   = errors.New("token generation failed")
	ErrCSRFSecretMissing = errors.New("CSRF secret not configured")
)

// External service errors.
var (
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	ErrNotFound           = errors.New("not found")
)

// Rate limiting errors.
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)
