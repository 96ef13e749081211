package lsp

import "github.com/dshills/proofpane/internal/verdict"

// Relay translates the user "check proof step" action into the wire
// request, addressed by document identity, version, and the selection
// at invocation time.
type Relay struct {
	manager *Manager
}

// NewRelay creates a relay over the manager's connection.
func NewRelay(manager *Manager) *Relay {
	return &Relay{manager: manager}
}

// CheckStep sends the check request for the selection. A no-op when no
// checker is running: the action is only meaningful with a live
// connection, and the user sees nothing when the feature is off.
// Version staleness is the checker's concern; nothing is validated
// here.
func (r *Relay) CheckStep(uri string, version int, sel verdict.Range) error {
	conn := r.manager.Connection()
	if conn == nil {
		return nil
	}
	return conn.CheckStep(uri, version, sel)
}
