package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// ProbeFunc checks gateway reachability; a non-nil error means unreachable.
type ProbeFunc func(ctx context.Context) error

// Monitor tracks whether the gateway is reachable. The flag is consulted
// only to suppress duplicate user-facing warnings while offline; it never
// alters retry behavior. Implements domain.ConnectivityProbe.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	offline  atomic.Bool
	logger   *slog.Logger
}

// NewMonitor creates a connectivity monitor. The hub starts optimistic:
// it assumes online until a probe fails.
func NewMonitor(probe ProbeFunc, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
		logger:   logger,
	}
}

// Offline reports the last observed connectivity state.
func (m *Monitor) Offline() bool {
	return m.offline.Load()
}

// Run probes the gateway on a fixed interval until ctx ends.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.probe(probeCtx)
	wasOffline := m.offline.Swap(err != nil)

	switch {
	case err != nil && !wasOffline:
		m.logger.WarnContext(ctx, "gateway unreachable, entering offline mode", "error", err)
	case err == nil && wasOffline:
		m.logger.InfoContext(ctx, "gateway reachable again, leaving offline mode")
	}
}
