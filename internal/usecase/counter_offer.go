package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"audit-hub/internal/domain"
)

// CounterOffer appends a counter to an existing negotiation thread. The
// parent offer is never mutated; threads are append-only.
type CounterOffer struct {
	offers        domain.OfferStore
	notifications domain.NotificationStore
	tracker       ThreadKicker
	logger        *slog.Logger
}

// NewCounterOffer creates a new CounterOffer usecase.
func NewCounterOffer(o domain.OfferStore, n domain.NotificationStore, t ThreadKicker, l *slog.Logger) *CounterOffer {
	return &CounterOffer{offers: o, notifications: n, tracker: t, logger: l}
}

// Execute validates the terms and the parent, then stores the counter. The
// parent must belong to the same audit thread and still be pending.
func (uc *CounterOffer) Execute(ctx context.Context, parentOfferID string, input OfferInput) (*domain.EngagementOffer, error) {
	terms, err := domain.ParseOfferTerms(input.Scope, input.Price, input.TimelineDays)
	if err != nil {
		return nil, err
	}

	parent, err := uc.offers.GetOffer(ctx, parentOfferID)
	if err != nil {
		return nil, err
	}
	if err := parent.CanParent(input.AuditRequestID); err != nil {
		return nil, err
	}

	offer := domain.EngagementOffer{
		ID:             uuid.NewString(),
		AuditRequestID: parent.AuditRequestID,
		AuditorID:      parent.AuditorID,
		ClientID:       parent.ClientID,
		Terms:          terms,
		Status:         domain.OfferPending,
		ParentOfferID:  parent.ID,
		CreatedAt:      time.Now(),
	}
	if err := uc.offers.InsertOffer(ctx, offer); err != nil {
		return nil, err
	}

	notifyCounterparty(ctx, uc.notifications, uc.logger, offer, input.ActorID,
		domain.NotifyOfferCountered, "Offer countered",
		"The other party proposed new terms for your engagement.")
	uc.tracker.Kick(offer.AuditRequestID)

	uc.logger.InfoContext(ctx, "counter offer created",
		"offer_id", offer.ID, "parent_offer_id", parent.ID)
	return &offer, nil
}
