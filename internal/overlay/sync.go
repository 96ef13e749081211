package overlay

import (
	"sync"

	"github.com/dshills/proofpane/internal/verdict"
)

// Entry is one overlay placed on an editor: a range plus optional
// hover text.
type Entry struct {
	Range verdict.Range
	Hover string
}

// EditorView is the slice of the host editor surface the synchronizer
// needs: document identity and replace-all overlay application.
type EditorView interface {
	// URI identifies the open document.
	URI() string

	// SetOverlays replaces the editor's entire overlay set for the
	// given style. An empty entries slice clears that style's
	// overlays on this editor.
	SetOverlays(style *Style, entries []Entry)
}

// ViewSource enumerates the host's currently visible editors. A
// document open in several panes yields several views.
type ViewSource interface {
	VisibleEditors() []EditorView
}

// Synchronizer converts inbound verdict batches into per-editor
// overlay sets. It exclusively owns the style registry.
//
// Batches arrive on the transport read loop while style rebuilds come
// from configuration changes on another goroutine; mu serializes the
// two so a batch can never land on handles from a discarded build.
type Synchronizer struct {
	mu       sync.Mutex
	registry *Registry
	views    ViewSource
}

// NewSynchronizer creates a synchronizer over the given view source.
// RebuildStyles must be called once before batches are applied.
func NewSynchronizer(views ViewSource) *Synchronizer {
	return &Synchronizer{
		registry: NewRegistry(),
		views:    views,
	}
}

// Registry exposes the owned registry for read access (the terminal
// host looks up style attributes when drawing).
func (s *Synchronizer) Registry() *Registry {
	return s.registry
}

// RebuildStyles clears every visible editor's overlays for the prior
// handles, then swaps in a fresh style set. Called once at startup and
// again whenever the line-span option changes; prior handles are dead
// afterwards.
func (s *Synchronizer) RebuildStyles(wholeLine bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.registry.Styles()
	if len(old) > 0 {
		for _, view := range s.views.VisibleEditors() {
			for _, style := range old {
				view.SetOverlays(style, nil)
			}
		}
	}
	s.registry.Rebuild(wholeLine)
}

// ApplyBatch renders one verdict batch. Every visible editor showing
// the batch's document gets its overlay set fully replaced, one bucket
// per verdict kind; editors on other documents are untouched. Markers
// with an unrecognized kind are dropped. Safe to call repeatedly: each
// call fully determines the document's overlay state.
func (s *Synchronizer) ApplyBatch(b verdict.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buckets := partition(b.Markers)

	for _, view := range s.views.VisibleEditors() {
		if view.URI() != b.URI {
			continue
		}
		for _, kind := range verdict.Kinds() {
			style := s.registry.Handle(kind)
			if style == nil {
				continue
			}
			view.SetOverlays(style, buckets[kind])
		}
	}
}

// partition groups markers by kind, preserving order and duplicates.
// KindUnknown markers are silently dropped so a newer checker can
// report kinds this client does not know yet.
func partition(markers []verdict.Marker) map[verdict.Kind][]Entry {
	buckets := make(map[verdict.Kind][]Entry, len(verdict.Kinds()))
	for _, m := range markers {
		if m.State == verdict.KindUnknown {
			continue
		}
		buckets[m.State] = append(buckets[m.State], Entry{Range: m.Range, Hover: m.Hover})
	}
	return buckets
}
