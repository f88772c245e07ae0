// Package offers tracks live negotiation threads: one poller per watched
// audit request, pushing thread snapshots to subscribers when they change.
package offers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"audit-hub/internal/domain"
	"audit-hub/internal/infrastructure/retry"
)

// ThreadSnapshot is one observed state of a negotiation thread, oldest
// offer first.
type ThreadSnapshot struct {
	AuditRequestID string
	Offers         []domain.EngagementOffer
	ObservedAt     time.Time
}

// Latest returns the most recent offer in the thread, or nil when empty.
func (s ThreadSnapshot) Latest() *domain.EngagementOffer {
	if len(s.Offers) == 0 {
		return nil
	}
	return &s.Offers[len(s.Offers)-1]
}

type threadWatch struct {
	cancel  context.CancelFunc
	updates chan ThreadSnapshot
	kick    chan struct{}
}

// Tracker polls watched negotiation threads against the offer store. Each
// watch polls on a jittered base interval, backs off exponentially while
// the thread is idle, and snaps back to the base interval on any change.
type Tracker struct {
	store   domain.OfferStore
	logger  *slog.Logger
	backoff retry.BackoffFunc

	mu      sync.Mutex
	watches map[string]*threadWatch
	closed  bool
}

// NewTracker creates a tracker polling at base interval and backing off up
// to max while a thread stays unchanged.
func NewTracker(store domain.OfferStore, base, max time.Duration, logger *slog.Logger) *Tracker {
	return &Tracker{
		store:   store,
		logger:  logger,
		backoff: retry.Jitter(retry.Exponential(base, max), 0.2),
		watches: make(map[string]*threadWatch),
	}
}

// Watch starts polling the given audit thread and returns a channel of
// snapshots plus a cancel function. The channel carries the latest-known
// state; a subscriber that falls behind sees the newest snapshot, not a
// backlog. Watching an already-watched thread returns the existing stream.
func (t *Tracker) Watch(ctx context.Context, auditRequestID string) (<-chan ThreadSnapshot, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		ch := make(chan ThreadSnapshot)
		close(ch)
		return ch, func() {}
	}
	if w, ok := t.watches[auditRequestID]; ok {
		return w.updates, func() { t.stop(auditRequestID) }
	}

	pollCtx, cancel := context.WithCancel(ctx)
	w := &threadWatch{
		cancel:  cancel,
		updates: make(chan ThreadSnapshot, 1),
		kick:    make(chan struct{}, 1),
	}
	t.watches[auditRequestID] = w

	go t.poll(pollCtx, auditRequestID, w)
	return w.updates, func() { t.stop(auditRequestID) }
}

// Kick forces an immediate re-poll of a watched thread and resets its
// backoff. Called after local offer writes so the snapshot reflects them
// without waiting out the interval. Unwatched threads are ignored.
func (t *Tracker) Kick(auditRequestID string) {
	t.mu.Lock()
	w, ok := t.watches[auditRequestID]
	t.mu.Unlock()

	if !ok {
		return
	}
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Close stops every watch. Subsequent Watch calls return closed channels.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	for id, w := range t.watches {
		delete(t.watches, id)
		w.cancel()
	}
}

func (t *Tracker) stop(auditRequestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.watches[auditRequestID]
	if !ok {
		return
	}
	delete(t.watches, auditRequestID)
	w.cancel()
}

// poll owns w.updates: only this goroutine sends on it, and it closes the
// channel on return. stop and Close merely cancel the context, so a store
// response racing a cancel can never hit a closed channel.
func (t *Tracker) poll(ctx context.Context, auditRequestID string, w *threadWatch) {
	defer close(w.updates)

	var (
		idle    int
		lastSig string
	)

	for {
		offers, err := t.store.ListThread(ctx, auditRequestID)
		if ctx.Err() != nil {
			return
		}
		switch {
		case err != nil:
			t.logger.WarnContext(ctx, "thread poll failed",
				"audit_request_id", auditRequestID,
				"error", err)
			idle++
		default:
			sig := threadSignature(offers)
			if sig != lastSig {
				lastSig = sig
				idle = 0
				t.push(w, ThreadSnapshot{
					AuditRequestID: auditRequestID,
					Offers:         offers,
					ObservedAt:     time.Now(),
				})
			} else {
				idle++
			}
		}

		delay := t.backoff(idle + 1)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-w.kick:
			timer.Stop()
			idle = 0
		case <-timer.C:
		}
	}
}

// push delivers a snapshot with latest-wins semantics: if the subscriber
// has not drained the previous snapshot, it is replaced.
func (t *Tracker) push(w *threadWatch, snap ThreadSnapshot) {
	for {
		select {
		case w.updates <- snap:
			return
		default:
			select {
			case <-w.updates:
			default:
			}
		}
	}
}

// threadSignature fingerprints a thread by offer identity and status, the
// only fields a poll can observe changing.
func threadSignature(offers []domain.EngagementOffer) string {
	var b strings.Builder
	for _, o := range offers {
		fmt.Fprintf(&b, "%s:%s;", o.ID, o.Status)
	}
	return b.String()
}
