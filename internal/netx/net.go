// Package netx tracks reachability of the remote authority. A Monitor polls a
// Prober and reports offline/online transitions; the client uses the
// offline→online edge as its reconnect event.
package netx

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/logging"
)

// Prober is anything that can cheaply tell whether the remote side answers.
type Prober interface {
	Ping(ctx context.Context) error
}

// ChangeFunc is called after every transition with the new state.
type ChangeFunc func(ctx context.Context, online bool)

type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger

	online atomic.Bool

	mu       sync.Mutex
	onChange []ChangeFunc
}

// NewMonitor returns a Monitor that starts in the offline state.
func NewMonitor(p Prober, interval, timeout time.Duration, l logging.Logger) *Monitor {
	return &Monitor{
		prober:   p,
		interval: interval,
		timeout:  timeout,
		logger:   l.With("module", "netx"),
	}
}

// OnChange registers f to be called on each transition.
func (m *Monitor) OnChange(f ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, f)
}

// Status returns the last observed state without probing.
func (m *Monitor) Status() bool {
	return m.online.Load()
}

// Online probes right now and records the result.
func (m *Monitor) Online(ctx context.Context) bool {
	return m.Check(ctx)
}

// Check probes once, records the result and fires the change callbacks when
// the state flipped. It returns the new state.
func (m *Monitor) Check(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Ping(pctx)
	cancel()

	now := err == nil
	if prev := m.online.Swap(now); prev != now {
		m.logger.Info(ctx, "connectivity changed", "online", now)
		m.notify(ctx, now)
	}
	return now
}

func (m *Monitor) notify(ctx context.Context, online bool) {
	m.mu.Lock()
	fns := make([]ChangeFunc, len(m.onChange))
	copy(fns, m.onChange)
	m.mu.Unlock()

	for _, f := range fns {
		f(ctx, online)
	}
}

// Run probes immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
