package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"audit-hub/internal/domain"
)

var _ domain.OfferStore = (*OfferRepository)(nil)

// OfferRepository reads and writes engagement offer rows. Threads are
// append-only: counter-offers are new rows, never updates to the parent.
type OfferRepository struct {
	db *Connection
}

// NewOfferRepository creates an offer repository over the shared connection.
func NewOfferRepository(db *Connection) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `id, audit_request_id, auditor_id, client_id,
			scope, price, timeline_days, status, parent_offer_id, created_at, decided_at`

// InsertOffer appends a new offer row to its audit thread.
func (r *OfferRepository) InsertOffer(ctx context.Context, offer domain.EngagementOffer) error {
	query := `INSERT INTO engagement_offers (id, audit_request_id, auditor_id, client_id,
			                                 scope, price, timeline_days, status, parent_offer_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), now())`

	_, err := r.db.Exec(ctx, query,
		offer.ID, offer.AuditRequestID, offer.AuditorID, offer.ClientID,
		offer.Terms.Scope, offer.Terms.Price, offer.Terms.TimelineDays, offer.Status, offer.ParentOfferID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert offer: %w", err)
	}

	return nil
}

// GetOffer fetches one offer row by id.
func (r *OfferRepository) GetOffer(ctx context.Context, id string) (*domain.EngagementOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM engagement_offers WHERE id = $1`

	offer, err := scanOffer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	return offer, nil
}

// DecideOffer moves a pending offer to a terminal status. The WHERE guard
// makes terminal states immutable even under concurrent decisions; losing
// callers get ErrOfferTerminal (or ErrOfferNotFound for unknown ids).
func (r *OfferRepository) DecideOffer(ctx context.Context, id string, status domain.OfferStatus) (*domain.EngagementOffer, error) {
	query := `UPDATE engagement_offers
			  SET status = $2, decided_at = now()
			  WHERE id = $1 AND status = 'pending'
			  RETURNING ` + offerColumns

	offer, err := scanOffer(r.db.QueryRow(ctx, query, id, status))
	if err == nil {
		return offer, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to decide offer: %w", err)
	}

	// No pending row matched: distinguish missing from already decided.
	existing, getErr := r.GetOffer(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return existing, domain.ErrOfferTerminal
}

// ListThread fetches the full offer history for an audit request, oldest first.
func (r *OfferRepository) ListThread(ctx context.Context, auditRequestID string) ([]domain.EngagementOffer, error) {
	query := `SELECT ` + offerColumns + `
			  FROM engagement_offers WHERE audit_request_id = $1
			  ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, auditRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offer thread: %w", err)
	}
	defer rows.Close()

	var offers []domain.EngagementOffer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read offer thread: %w", err)
	}

	return offers, nil
}

// scanOffer reads one offer from a row, normalizing nullable columns.
func scanOffer(row pgx.Row) (*domain.EngagementOffer, error) {
	var o domain.EngagementOffer
	var parent *string
	var decidedAt *time.Time

	err := row.Scan(
		&o.ID, &o.AuditRequestID, &o.AuditorID, &o.ClientID,
		&o.Terms.Scope, &o.Terms.Price, &o.Terms.TimelineDays, &o.Status, &parent, &decidedAt,
	)
	if err != nil {
		return nil, err
	}

	if parent != nil {
		o.ParentOfferID = *parent
	}
	if decidedAt != nil {
		o.DecidedAt = *decidedAt
	}
	return &o, nil
}

var _ domain.NotificationStore = (*NotificationRepository)(nil)

// NotificationRepository reads and writes notification rows.
type NotificationRepository struct {
	db *Connection
}

// NewNotificationRepository creates a notification repository over the
// shared connection.
func NewNotificationRepository(db *Connection) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// InsertNotification appends a notification row.
func (r *NotificationRepository) InsertNotification(ctx context.Context, n domain.Notification) error {
	query := `INSERT INTO notifications (id, user_id, kind, title, body, read, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, now())`

	_, err := r.db.Exec(ctx, query, n.ID, n.UserID, n.Kind, n.Title, n.Body, n.Read)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// ListNotifications fetches the newest notifications for a user.
func (r *NotificationRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	query := `SELECT id, user_id, kind, title, body, read, created_at
			  FROM notifications WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	return notifications, nil
}
