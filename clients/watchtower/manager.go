package watchtower

import (
	"context"
	"sync"

	"controlroom/pkg/logging"
)

// Manager owns at most one live channel at a time. Switching tenants tears
// the previous channel down completely (retry timers cancelled, pumps
// stopped) before the next one is built, so two channels never deliver
// events concurrently and a stale tenant can never leak into the current
// projection.
type Manager struct {
	cfg    Config
	logger logging.Logger

	mu     sync.Mutex
	active *Channel
}

// NewManager creates a channel manager. The Config is the template every
// channel is built from; the tenant is supplied per EnsureChannel call.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, logger: cfg.Logger}
}

// EnsureChannel makes sure the live channel is bound to the given tenant
// and returns it. An existing channel for the same tenant is reused unless
// it already parked in Failed; a channel for a different tenant is closed
// first. An empty tenant tears everything down and returns nil.
func (m *Manager) EnsureChannel(ctx context.Context, tenant string) *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		if m.active.Tenant() == tenant && m.active.State().Phase != Failed {
			return m.active
		}
		m.closeActive()
	}
	if tenant == "" {
		return nil
	}

	if m.cfg.Projection != nil {
		m.cfg.Projection.Clear()
	}
	m.active = newChannel(ctx, tenant, m.cfg)
	logging.WithTenant(m.logger, tenant).Info("Push channel created")
	return m.active
}

// Active returns the current channel, nil when none is live.
func (m *Manager) Active() *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// State reports the current channel's lifecycle, or a Disconnected zero
// state when no channel exists.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ConnectionState{Phase: Disconnected}
	}
	return m.active.State()
}

// Teardown closes the live channel, if any. Safe to call repeatedly and
// never panics; close errors are logged at debug level inside the channel.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeActive()
}

// closeActive must be called with m.mu held. It blocks until the old
// channel's loop has fully exited; EnsureChannel relies on that ordering.
func (m *Manager) closeActive() {
	if m.active == nil {
		return
	}
	old := m.active
	m.active = nil
	old.Close()
	logging.WithTenant(m.logger, old.Tenant()).Debug("Push channel torn down")
}
