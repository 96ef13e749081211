package lsp

import (
	"log"
	"sync"

	"github.com/dshills/proofpane/internal/config"
	"github.com/dshills/proofpane/internal/verdict"
)

// Connection is the slice of Client the manager and relay need.
type Connection interface {
	CheckStep(uri string, version int, sel verdict.Range) error
	Close() error
}

// DialFunc spawns a checker connection for the given proof
// configuration, wiring onBatch as the verdict consumer.
type DialFunc func(cfg config.Proof, onBatch BatchFunc) (Connection, error)

// defaultDial spawns a real checker process.
func defaultDial(cfg config.Proof, onBatch BatchFunc) (Connection, error) {
	return Dial(cfg.Command, onBatch)
}

// Manager owns the single checker connection for the editor session:
// Stopped or Running, nothing in between. Start and Stop are
// idempotent no-ops when already in the target state, which makes
// reentrant calls from configuration events harmless.
type Manager struct {
	mu      sync.Mutex
	dial    DialFunc
	onBatch BatchFunc
	conn    Connection
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDial replaces the connection factory. Tests inject fakes here.
func WithDial(dial DialFunc) ManagerOption {
	return func(m *Manager) {
		if dial != nil {
			m.dial = dial
		}
	}
}

// NewManager creates a stopped manager whose connections deliver
// verdict batches to onBatch.
func NewManager(onBatch BatchFunc, opts ...ManagerOption) *Manager {
	m := &Manager{dial: defaultDial, onBatch: onBatch}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the checker if the configuration allows it. No-op
// when already running. A disabled feature or an empty launch command
// is not an error: the bridge is silently inert until the user fixes
// the configuration.
func (m *Manager) Start(cfg config.Proof) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return nil
	}
	if !cfg.Active() {
		return nil
	}

	conn, err := m.dial(cfg, m.onBatch)
	if err != nil {
		// No retry here: the user fixes the command and the next
		// configuration change triggers a fresh start.
		return err
	}
	m.conn = conn
	return nil
}

// Stop tears down the connection. No-op when already stopped. The
// teardown is fire-and-forget with respect to process exit; the
// manager is Stopped as soon as Stop returns.
func (m *Manager) Stop() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		log.Printf("checker stop: %v", err)
	}
}

// Restart stops any live connection, then starts fresh with the given
// configuration. The stop fully completes before the start begins, so
// at most one connection is ever live. Afterwards the manager runs iff
// the configuration is active.
func (m *Manager) Restart(cfg config.Proof) error {
	m.Stop()
	return m.Start(cfg)
}

// IsRunning reports whether a connection is live.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Connection returns the live connection, or nil when stopped.
func (m *Manager) Connection() Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}
