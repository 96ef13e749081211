package host

import (
	"sync"

	"github.com/dshills/proofpane/internal/overlay"
	"github.com/dshills/proofpane/internal/verdict"
)

// FakeEditor is an in-memory EditorView recording overlay application.
type FakeEditor struct {
	mu sync.Mutex

	DocURI     string
	DocVersion int
	Sel        verdict.Range

	// Overlays holds the latest non-empty entry set per style.
	Overlays map[*overlay.Style][]overlay.Entry

	// SetCalls counts SetOverlays invocations, clears included.
	SetCalls int
}

// NewFakeEditor creates a fake editor pane for the given document.
func NewFakeEditor(uri string, version int) *FakeEditor {
	return &FakeEditor{
		DocURI:     uri,
		DocVersion: version,
		Overlays:   make(map[*overlay.Style][]overlay.Entry),
	}
}

func (e *FakeEditor) URI() string              { return e.DocURI }
func (e *FakeEditor) Version() int             { return e.DocVersion }
func (e *FakeEditor) Selection() verdict.Range { return e.Sel }

func (e *FakeEditor) SetOverlays(style *overlay.Style, entries []overlay.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.SetCalls++
	if len(entries) == 0 {
		delete(e.Overlays, style)
		return
	}
	e.Overlays[style] = entries
}

// EntriesFor returns the latest entries applied under the given style.
func (e *FakeEditor) EntriesFor(style *overlay.Style) []overlay.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Overlays[style]
}

// Fake is an in-memory Host.
type Fake struct {
	mu       sync.Mutex
	editors  []*FakeEditor
	active   *FakeEditor
	commands map[string]CommandFunc
}

// NewFake creates an empty fake host.
func NewFake() *Fake {
	return &Fake{commands: make(map[string]CommandFunc)}
}

// AddEditor makes an editor visible; the first added becomes active.
func (f *Fake) AddEditor(e *FakeEditor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editors = append(f.editors, e)
	if f.active == nil {
		f.active = e
	}
}

// SetActive changes the focused editor.
func (f *Fake) SetActive(e *FakeEditor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = e
}

func (f *Fake) VisibleEditors() []EditorView {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EditorView, len(f.editors))
	for i, e := range f.editors {
		out[i] = e
	}
	return out
}

func (f *Fake) ActiveEditor() EditorView {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == nil {
		return nil
	}
	return f.active
}

func (f *Fake) RegisterCommand(name string, fn CommandFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands[name] = fn
}

// Invoke runs a registered command against the active editor, as the
// host would on a key binding. Reports whether the command exists.
func (f *Fake) Invoke(name string) bool {
	f.mu.Lock()
	fn, ok := f.commands[name]
	active := f.active
	f.mu.Unlock()
	if !ok || fn == nil {
		return false
	}
	if active == nil {
		fn(nil)
		return true
	}
	fn(active)
	return true
}
