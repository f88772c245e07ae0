package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"audit-hub/internal/domain"
	"audit-hub/internal/offers"
	"audit-hub/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ThreadWatcher is the tracker's subscription surface: a live stream of
// thread snapshots plus a cancel function.
type ThreadWatcher interface {
	Watch(ctx context.Context, auditRequestID string) (<-chan offers.ThreadSnapshot, func())
}

// OfferHandler handles the negotiation endpoints.
type OfferHandler struct {
	validate *usecase.ValidateSession
	create   *usecase.CreateOffer
	counter  *usecase.CounterOffer
	decide   *usecase.DecideOffer
	thread   *usecase.GetOfferThread
	watcher  ThreadWatcher
}

// NewOfferHandler creates a new offer handler.
func NewOfferHandler(validate *usecase.ValidateSession, create *usecase.CreateOffer, counter *usecase.CounterOffer, decide *usecase.DecideOffer, thread *usecase.GetOfferThread, watcher ThreadWatcher) *OfferHandler {
	return &OfferHandler{validate: validate, create: create, counter: counter, decide: decide, thread: thread, watcher: watcher}
}

type offerRequest struct {
	AuditRequestID string `json:"auditRequestId"`
	AuditorID      string `json:"auditorId"`
	ClientID       string `json:"clientId"`
	Scope          string `json:"scope"`
	Price          string `json:"price"`
	TimelineDays   string `json:"timelineDays"`
}

type offerView struct {
	ID             string     `json:"id"`
	AuditRequestID string     `json:"auditRequestId"`
	AuditorID      string     `json:"auditorId"`
	ClientID       string     `json:"clientId"`
	Scope          string     `json:"scope"`
	Price          float64    `json:"price"`
	TimelineDays   int        `json:"timelineDays"`
	Status         string     `json:"status"`
	ParentOfferID  string     `json:"parentOfferId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	DecidedAt      *time.Time `json:"decidedAt,omitempty"`
}

func toOfferView(o domain.EngagementOffer) offerView {
	view := offerView{
		ID:             o.ID,
		AuditRequestID: o.AuditRequestID,
		AuditorID:      o.AuditorID,
		ClientID:       o.ClientID,
		Scope:          o.Terms.Scope,
		Price:          o.Terms.Price,
		TimelineDays:   o.Terms.TimelineDays,
		Status:         string(o.Status),
		ParentOfferID:  o.ParentOfferID,
		CreatedAt:      o.CreatedAt,
	}
	if !o.DecidedAt.IsZero() {
		decided := o.DecidedAt
		view.DecidedAt = &decided
	}
	return view
}

// HandleCreate processes POST /offers.
func (h *OfferHandler) HandleCreate(c echo.Context) error {
	identity, _, err := h.validate.Execute(c.Request().Context(), sessionToken(c))
	if err != nil {
		return mapDomainError(err)
	}

	var req offerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.AuditRequestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "auditRequestId is required")
	}

	offer, err := h.create.Execute(c.Request().Context(), usecase.OfferInput{
		AuditRequestID: req.AuditRequestID,
		AuditorID:      req.AuditorID,
		ClientID:       req.ClientID,
		ActorID:        identity.UserID,
		Scope:          req.Scope,
		Price:          req.Price,
		TimelineDays:   req.TimelineDays,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusCreated, toOfferView(*offer))
}

// HandleCounter processes POST /offers/:id/counter.
func (h *OfferHandler) HandleCounter(c echo.Context) error {
	identity, _, err := h.validate.Execute(c.Request().Context(), sessionToken(c))
	if err != nil {
		return mapDomainError(err)
	}

	var req offerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	offer, err := h.counter.Execute(c.Request().Context(), c.Param("id"), usecase.OfferInput{
		AuditRequestID: req.AuditRequestID,
		ActorID:        identity.UserID,
		Scope:          req.Scope,
		Price:          req.Price,
		TimelineDays:   req.TimelineDays,
	})
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusCreated, toOfferView(*offer))
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

// HandleDecision processes POST /offers/:id/decision.
func (h *OfferHandler) HandleDecision(c echo.Context) error {
	identity, _, err := h.validate.Execute(c.Request().Context(), sessionToken(c))
	if err != nil {
		return mapDomainError(err)
	}

	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	offer, err := h.decide.Execute(c.Request().Context(), c.Param("id"), identity.UserID, req.Decision)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, toOfferView(*offer))
}

// HandleThread processes GET /audits/:auditID/offers.
func (h *OfferHandler) HandleThread(c echo.Context) error {
	if _, _, err := h.validate.Execute(c.Request().Context(), sessionToken(c)); err != nil {
		return mapDomainError(err)
	}

	thread, err := h.thread.Execute(c.Request().Context(), c.Param("auditID"))
	if err != nil {
		return mapDomainError(err)
	}

	views := make([]offerView, 0, len(thread))
	for _, o := range thread {
		views = append(views, toOfferView(o))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"auditRequestId": c.Param("auditID"),
		"offers":         views,
	})
}

type threadEvent struct {
	AuditRequestID string      `json:"auditRequestId"`
	Offers         []offerView `json:"offers"`
	ObservedAt     time.Time   `json:"observedAt"`
}

// HandleStream processes GET /audits/:auditID/offers/stream: a server-sent
// event stream of thread snapshots, one `thread` event per observed change,
// until the client disconnects.
func (h *OfferHandler) HandleStream(c echo.Context) error {
	if _, _, err := h.validate.Execute(c.Request().Context(), sessionToken(c)); err != nil {
		return mapDomainError(err)
	}
	auditID := c.Param("auditID")
	if auditID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "audit request id is required")
	}

	ctx := c.Request().Context()
	updates, cancelWatch := h.watcher.Watch(ctx, auditID)
	defer cancelWatch()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	enc := json.NewEncoder(resp)
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			views := make([]offerView, 0, len(snap.Offers))
			for _, o := range snap.Offers {
				views = append(views, toOfferView(o))
			}
			if _, err := fmt.Fprint(resp, "event: thread\ndata: "); err != nil {
				return nil
			}
			if err := enc.Encode(threadEvent{
				AuditRequestID: snap.AuditRequestID,
				Offers:         views,
				ObservedAt:     snap.ObservedAt,
			}); err != nil {
				return nil
			}
			fmt.Fprint(resp, "\n")
			resp.Flush()
		}
	}
}
