// Package host abstracts the editor surface the proof bridge runs in:
// visible editors, overlay application, and user command registration.
//
// The production implementation lives in host/term (a tcell terminal
// host); Fake provides an in-memory host for tests. Reproducing the
// host as an explicit interface keeps the bridge core testable without
// a real editor.
package host

import (
	"github.com/dshills/proofpane/internal/overlay"
	"github.com/dshills/proofpane/internal/verdict"
)

// EditorView is one visible editor pane. A document open in several
// panes yields several views with the same URI.
type EditorView interface {
	overlay.EditorView

	// Version is the document's current content version.
	Version() int

	// Selection is the user's current selection; empty range when the
	// selection is just a cursor.
	Selection() verdict.Range
}

// CommandFunc handles a user-invoked command against the editor that
// was active at invocation time.
type CommandFunc func(view EditorView)

// Host is the editor surface the bridge is embedded in.
type Host interface {
	// VisibleEditors returns the currently visible editor panes.
	VisibleEditors() []EditorView

	// ActiveEditor returns the focused editor, or nil when none.
	ActiveEditor() EditorView

	// RegisterCommand binds a named user command. Invoking the
	// command calls fn with the active editor.
	RegisterCommand(name string, fn CommandFunc)
}

// Views adapts a Host to the synchronizer's ViewSource.
func Views(h Host) overlay.ViewSource {
	return viewSource{h}
}

type viewSource struct{ h Host }

func (v viewSource) VisibleEditors() []overlay.EditorView {
	editors := v.h.VisibleEditors()
	out := make([]overlay.EditorView, len(editors))
	for i, e := range editors {
		out[i] = e
	}
	return out
}
