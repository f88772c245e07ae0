package usecase

import (
	"context"
	"log/slog"

	"audit-hub/internal/domain"
)

// GetOfferThread lists the negotiation thread for an audit request,
// oldest offer first.
type GetOfferThread struct {
	offers domain.OfferStore
	logger *slog.Logger
}

// NewGetOfferThread creates a new GetOfferThread usecase.
func NewGetOfferThread(o domain.OfferStore, l *slog.Logger) *GetOfferThread {
	return &GetOfferThread{offers: o, logger: l}
}

// Execute returns the full thread. An audit request with no offers yields
// an empty slice, not an error.
func (uc *GetOfferThread) Execute(ctx context.Context, auditRequestID string) ([]domain.EngagementOffer, error) {
	return uc.offers.ListThread(ctx, auditRequestID)
}
