package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOfferTerms(t *testing.T) {
	tests := []struct {
		name     string
		scope    string
		price    string
		timeline string
		wantErr  bool
	}{
		{name: "valid", scope: "full protocol audit", price: "15000", timeline: "21"},
		{name: "fractional price", scope: "scoped review", price: "1499.50", timeline: "7"},
		{name: "missing scope", scope: "  ", price: "100", timeline: "5", wantErr: true},
		{name: "negative price", scope: "audit", price: "-5", timeline: "5", wantErr: true},
		{name: "zero timeline", scope: "audit", price: "100", timeline: "0", wantErr: true},
		{name: "non-numeric price", scope: "audit", price: "lots", timeline: "5", wantErr: true},
		{name: "fractional timeline", scope: "audit", price: "100", timeline: "2.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := ParseOfferTerms(tt.scope, tt.price, tt.timeline)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOfferTerms)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, terms.Scope)
			assert.Greater(t, terms.Price, 0.0)
			assert.Greater(t, terms.TimelineDays, 0)
		})
	}
}

func TestOfferStatus_Terminal(t *testing.T) {
	assert.False(t, OfferPending.Terminal())
	assert.True(t, OfferAccepted.Terminal())
	assert.True(t, OfferRejected.Terminal())
}

func TestParseDecision(t *testing.T) {
	got, err := ParseDecision("accepted")
	assert.NoError(t, err)
	assert.Equal(t, OfferAccepted, got)

	_, err = ParseDecision("pending")
	assert.ErrorIs(t, err, ErrInvalidOfferTerms, "pending is not a decision")
}

func TestEngagementOffer_CanParent(t *testing.T) {
	offer := EngagementOffer{
		ID:             "offer-1",
		AuditRequestID: "audit-1",
		Status:         OfferPending,
	}

	assert.NoError(t, offer.CanParent("audit-1"))
	assert.ErrorIs(t, offer.CanParent("audit-2"), ErrOfferThreadMixed)

	offer.Status = OfferAccepted
	assert.ErrorIs(t, offer.CanParent("audit-1"), ErrOfferTerminal)
}
