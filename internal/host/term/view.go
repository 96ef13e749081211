package term

import (
	"strings"
	"sync"

	"github.com/dshills/proofpane/internal/overlay"
	"github.com/dshills/proofpane/internal/verdict"
)

// View is the single editor pane of the terminal host.
type View struct {
	host *Host

	uri     string
	version int
	lines   []string

	mu       sync.Mutex
	cursor   verdict.Position
	overlays map[*overlay.Style][]overlay.Entry
}

func newView(h *Host, uri, content string) *View {
	return &View{
		host:     h,
		uri:      uri,
		version:  1,
		lines:    strings.Split(content, "\n"),
		overlays: make(map[*overlay.Style][]overlay.Entry),
	}
}

// URI implements host.EditorView.
func (v *View) URI() string { return v.uri }

// Version implements host.EditorView.
func (v *View) Version() int { return v.version }

// Content returns the document text, for the didOpen handshake.
func (v *View) Content() string {
	return strings.Join(v.lines, "\n")
}

// Selection implements host.EditorView: the viewer has no real
// selection, so the cursor position stands in as an empty range.
func (v *View) Selection() verdict.Range {
	cur := v.cursorPos()
	return verdict.Range{Start: cur, End: cur}
}

// SetOverlays implements host.EditorView with replace-all semantics.
func (v *View) SetOverlays(style *overlay.Style, entries []overlay.Entry) {
	v.mu.Lock()
	if len(entries) == 0 {
		delete(v.overlays, style)
	} else {
		v.overlays[style] = entries
	}
	v.mu.Unlock()
	v.host.redraw()
}

// entriesLocked returns the current entries for a style. Named for the
// redraw path, which already holds the host lock.
func (v *View) entriesLocked(style *overlay.Style) []overlay.Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.overlays[style]
}

// cursorPos returns the cursor position. The event loop moves the
// cursor while the transport read loop redraws, so reads go through
// the view lock.
func (v *View) cursorPos() verdict.Position {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor
}

// moveCursor moves the cursor by delta lines, clamped to the document.
func (v *View) moveCursor(delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	line := v.cursor.Line + delta
	if line < 0 {
		line = 0
	}
	if line >= len(v.lines) {
		line = len(v.lines) - 1
	}
	v.cursor = verdict.Position{Line: line}
}
