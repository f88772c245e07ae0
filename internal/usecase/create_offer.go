package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"audit-hub/internal/domain"
)

// ThreadKicker triggers an immediate re-poll of a watched negotiation
// thread after a local write.
type ThreadKicker interface {
	Kick(auditRequestID string)
}

// OfferInput carries the raw fields of a new engagement offer. Terms arrive
// as strings and are validated before any store call.
type OfferInput struct {
	AuditRequestID string
	AuditorID      string
	ClientID       string
	ActorID        string
	Scope          string
	Price          string
	TimelineDays   string
}

// CreateOffer opens a negotiation thread with an initial engagement offer.
type CreateOffer struct {
	offers        domain.OfferStore
	notifications domain.NotificationStore
	tracker       ThreadKicker
	logger        *slog.Logger
}

// NewCreateOffer creates a new CreateOffer usecase.
func NewCreateOffer(o domain.OfferStore, n domain.NotificationStore, t ThreadKicker, l *slog.Logger) *CreateOffer {
	return &CreateOffer{offers: o, notifications: n, tracker: t, logger: l}
}

// Execute validates the terms, stores the offer as pending and notifies
// the counterparty.
func (uc *CreateOffer) Execute(ctx context.Context, input OfferInput) (*domain.EngagementOffer, error) {
	terms, err := domain.ParseOfferTerms(input.Scope, input.Price, input.TimelineDays)
	if err != nil {
		return nil, err
	}

	offer := domain.EngagementOffer{
		ID:             uuid.NewString(),
		AuditRequestID: input.AuditRequestID,
		AuditorID:      input.AuditorID,
		ClientID:       input.ClientID,
		Terms:          terms,
		Status:         domain.OfferPending,
		CreatedAt:      time.Now(),
	}
	if err := uc.offers.InsertOffer(ctx, offer); err != nil {
		return nil, err
	}

	notifyCounterparty(ctx, uc.notifications, uc.logger, offer, input.ActorID,
		domain.NotifyOfferReceived, "New engagement offer",
		"You received a new offer for your audit request.")
	uc.tracker.Kick(offer.AuditRequestID)

	uc.logger.InfoContext(ctx, "offer created",
		"offer_id", offer.ID, "audit_request_id", offer.AuditRequestID)
	return &offer, nil
}

// notifyCounterparty records a notification for the party that did not
// perform the action. Failures are logged, not surfaced: the offer write
// already succeeded.
func notifyCounterparty(ctx context.Context, store domain.NotificationStore, logger *slog.Logger, offer domain.EngagementOffer, actorID, kind, title, body string) {
	target := offer.ClientID
	if actorID == offer.ClientID {
		target = offer.AuditorID
	}

	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    target,
		Kind:      kind,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := store.InsertNotification(ctx, n); err != nil {
		logger.WarnContext(ctx, "failed to record offer notification",
			"offer_id", offer.ID, "error", err)
	}
}
