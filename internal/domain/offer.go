package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OfferStatus is an engagement offer's lifecycle state. Pending is the only
// non-terminal state; accepted and rejected are immutable.
type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Terminal reports whether the status permits no further transition.
func (s OfferStatus) Terminal() bool {
	return s == OfferAccepted || s == OfferRejected
}

// ParseDecision validates a requested decision. Only the two terminal
// statuses are legal decisions.
func ParseDecision(s string) (OfferStatus, error) {
	switch OfferStatus(s) {
	case OfferAccepted, OfferRejected:
		return OfferStatus(s), nil
	default:
		return "", fmt.Errorf("%w: decision must be accepted or rejected", ErrInvalidOfferTerms)
	}
}

// OfferTerms is the negotiated scope of an engagement.
type OfferTerms struct {
	Scope        string
	Price        float64
	TimelineDays int
}

// ParseOfferTerms validates raw term inputs before any gateway call.
// Scope, price and timeline are all required; price and timeline must
// parse as positive numbers.
func ParseOfferTerms(scope, price, timeline string) (OfferTerms, error) {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return OfferTerms{}, fmt.Errorf("%w: scope is required", ErrInvalidOfferTerms)
	}

	p, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil {
		return OfferTerms{}, fmt.Errorf("%w: price must be a number", ErrInvalidOfferTerms)
	}
	if p <= 0 {
		return OfferTerms{}, fmt.Errorf("%w: price must be positive", ErrInvalidOfferTerms)
	}

	d, err := strconv.Atoi(strings.TrimSpace(timeline))
	if err != nil {
		return OfferTerms{}, fmt.Errorf("%w: timeline must be a whole number of days", ErrInvalidOfferTerms)
	}
	if d <= 0 {
		return OfferTerms{}, fmt.Errorf("%w: timeline must be positive", ErrInvalidOfferTerms)
	}

	return OfferTerms{Scope: scope, Price: p, TimelineDays: d}, nil
}

// EngagementOffer is one entry in an audit negotiation thread. An offer with
// ParentOfferID set is a counter-offer; threads are append-only, so counter
// offers never mutate their parent.
type EngagementOffer struct {
	ID             string
	AuditRequestID string
	AuditorID      string
	ClientID       string
	Terms          OfferTerms
	Status         OfferStatus
	ParentOfferID  string
	CreatedAt      time.Time
	DecidedAt      time.Time
}

// CanParent reports whether this offer may serve as the parent of a new
// counter-offer in the given audit thread.
func (o EngagementOffer) CanParent(auditRequestID string) error {
	if o.AuditRequestID != auditRequestID {
		return ErrOfferThreadMixed
	}
	if o.Status.Terminal() {
		return ErrOfferTerminal
	}
	return nil
}

// Notification is a user-facing message row in the gateway's table store.
// Negotiation events and resolver degradation warnings both land here.
type Notification struct {
	ID        string
	UserID    string
	Kind      string
	Title     string
	Body      string
	Read      bool
	CreatedAt time.Time
}

// Notification kinds.
const (
	NotifyOfferReceived  = "offer_received"
	NotifyOfferCountered = "offer_countered"
	NotifyOfferDecided   = "offer_decided"
	NotifySyncDegraded   = "sync_degraded"
)
