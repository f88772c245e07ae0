package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"audit-hub/internal/domain"
)

// DecideOffer accepts or rejects a pending offer. Decisions are terminal;
// a decided offer can never transition again.
type DecideOffer struct {
	offers        domain.OfferStore
	notifications domain.NotificationStore
	tracker       ThreadKicker
	logger        *slog.Logger
}

// NewDecideOffer creates a new DecideOffer usecase.
func NewDecideOffer(o domain.OfferStore, n domain.NotificationStore, t ThreadKicker, l *slog.Logger) *DecideOffer {
	return &DecideOffer{offers: o, notifications: n, tracker: t, logger: l}
}

// Execute applies the decision and notifies the counterparty. The store
// enforces terminality: deciding an already-decided offer returns
// ErrOfferTerminal regardless of which decision came first.
func (uc *DecideOffer) Execute(ctx context.Context, offerID, actorID, rawDecision string) (*domain.EngagementOffer, error) {
	decision, err := domain.ParseDecision(rawDecision)
	if err != nil {
		return nil, err
	}

	offer, err := uc.offers.DecideOffer(ctx, offerID, decision)
	if err != nil {
		return nil, err
	}

	verb := "accepted"
	if decision == domain.OfferRejected {
		verb = "rejected"
	}
	notifyCounterparty(ctx, uc.notifications, uc.logger, *offer, actorID,
		domain.NotifyOfferDecided, "Offer "+verb,
		fmt.Sprintf("Your engagement offer was %s.", verb))
	uc.tracker.Kick(offer.AuditRequestID)

	uc.logger.InfoContext(ctx, "offer decided",
		"offer_id", offer.ID, "status", string(offer.Status))
	return offer, nil
}
