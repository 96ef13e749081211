// Package overlay owns the verdict overlay styles and applies inbound
// verdict batches to the host's visible editors.
package overlay

import (
	"fmt"
	"sync"

	"github.com/dshills/proofpane/internal/verdict"
)

// Style is the opaque visual definition for one verdict kind. Handles
// are generation-stamped: after a registry rebuild, handles from the
// prior generation compare unequal to the new ones and must not be
// applied again.
type Style struct {
	// Kind is the verdict kind this style renders.
	Kind verdict.Kind

	// RulerColor marks the overview ruler, as a #rrggbb string.
	RulerColor string

	// GutterIcon is the icon asset path, fixed per-kind naming.
	GutterIcon string

	// WholeLine extends the overlay across the full line instead of
	// the exact reported span.
	WholeLine bool

	// LightBackground and DarkBackground highlight the span itself.
	// Only the failed kind carries these; empty otherwise.
	LightBackground string
	DarkBackground  string

	generation uint64
}

// Generation returns the registry generation this handle belongs to.
func (s *Style) Generation() uint64 {
	return s.generation
}

// rulerColors maps each kind to its overview ruler mark.
var rulerColors = map[verdict.Kind]string{
	verdict.KindProved:   "#2de52d",
	verdict.KindFailed:   "#e52d2d",
	verdict.KindOmitted:  "#e5e52d",
	verdict.KindMissing:  "#e5762d",
	verdict.KindPending:  "#9b9b9b",
	verdict.KindProgress: "#2d76e5",
}

// Registry owns exactly one style handle per verdict kind. It is
// rebuilt wholesale when the line-span option changes and is never
// partially mutated; the synchronizer is its sole owner.
type Registry struct {
	mu         sync.RWMutex
	styles     map[verdict.Kind]*Style
	generation uint64
}

// NewRegistry returns an empty registry. Rebuild must be called before
// handles are requested.
func NewRegistry() *Registry {
	return &Registry{}
}

// Rebuild discards every prior handle and constructs one fresh style
// per known verdict kind. The new set is built completely before the
// old one is dropped, so a reader never observes a mixed set.
func (r *Registry) Rebuild(wholeLine bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gen := r.generation + 1
	next := make(map[verdict.Kind]*Style, len(rulerColors))
	for _, kind := range verdict.Kinds() {
		s := &Style{
			Kind:       kind,
			RulerColor: rulerColors[kind],
			GutterIcon: fmt.Sprintf("icons/%s.svg", kind),
			WholeLine:  wholeLine,
			generation: gen,
		}
		if kind == verdict.KindFailed {
			s.LightBackground = "#ffd0d0"
			s.DarkBackground = "#502020"
		}
		next[kind] = s
	}
	r.styles = next
	r.generation = gen
}

// Handle returns the current style for a kind, or nil before the first
// rebuild or for KindUnknown.
func (r *Registry) Handle(kind verdict.Kind) *Style {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.styles[kind]
}

// Styles returns the current handles in fixed kind order. Empty before
// the first rebuild.
func (r *Registry) Styles() []*Style {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Style, 0, len(r.styles))
	for _, kind := range verdict.Kinds() {
		if s, ok := r.styles[kind]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Generation returns the current registry generation, starting at 0
// before the first rebuild.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}
