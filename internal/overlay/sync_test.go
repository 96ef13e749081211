package overlay

import (
	"sync"
	"testing"

	"github.com/dshills/proofpane/internal/verdict"
)

// fakeView records every SetOverlays call and the latest set per style.
type fakeView struct {
	uri     string
	current map[*Style][]Entry
	calls   int
}

func newFakeView(uri string) *fakeView {
	return &fakeView{uri: uri, current: make(map[*Style][]Entry)}
}

func (v *fakeView) URI() string { return v.uri }

func (v *fakeView) SetOverlays(style *Style, entries []Entry) {
	v.calls++
	if len(entries) == 0 {
		delete(v.current, style)
		return
	}
	v.current[style] = entries
}

// fakeViews is a static ViewSource.
type fakeViews []*fakeView

func (f fakeViews) VisibleEditors() []EditorView {
	out := make([]EditorView, len(f))
	for i, v := range f {
		out[i] = v
	}
	return out
}

func marker(kind verdict.Kind, line, startCol, endCol int, hover string) verdict.Marker {
	return verdict.Marker{
		Range: verdict.Range{
			Start: verdict.Position{Line: line, Character: startCol},
			End:   verdict.Position{Line: line, Character: endCol},
		},
		State: kind,
		Hover: hover,
	}
}

func TestRebuildStylesBuildsAllKinds(t *testing.T) {
	s := NewSynchronizer(fakeViews{})
	s.RebuildStyles(true)

	styles := s.Registry().Styles()
	if len(styles) != 6 {
		t.Fatalf("expected 6 styles, got %d", len(styles))
	}
	for _, st := range styles {
		if !st.WholeLine {
			t.Errorf("%v: WholeLine = false, want true", st.Kind)
		}
		if st.RulerColor == "" || st.GutterIcon == "" {
			t.Errorf("%v: incomplete style %+v", st.Kind, st)
		}
		hasBG := st.LightBackground != "" || st.DarkBackground != ""
		if (st.Kind == verdict.KindFailed) != hasBG {
			t.Errorf("%v: background variants only belong to failed, got %+v", st.Kind, st)
		}
	}
	if icon := s.Registry().Handle(verdict.KindProved).GutterIcon; icon != "icons/proved.svg" {
		t.Errorf("gutter icon = %q", icon)
	}
}

func TestRebuildInvalidatesPriorHandles(t *testing.T) {
	view := newFakeView("file:///a.tla")
	s := NewSynchronizer(fakeViews{view})
	s.RebuildStyles(true)
	oldProved := s.Registry().Handle(verdict.KindProved)
	gen := s.Registry().Generation()

	s.ApplyBatch(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		marker(verdict.KindProved, 1, 0, 5, ""),
	}})
	if len(view.current[oldProved]) != 1 {
		t.Fatal("overlay not applied before rebuild")
	}

	s.RebuildStyles(false)

	if s.Registry().Generation() != gen+1 {
		t.Errorf("generation = %d, want %d", s.Registry().Generation(), gen+1)
	}
	newProved := s.Registry().Handle(verdict.KindProved)
	if newProved == oldProved {
		t.Error("rebuild must produce fresh handles")
	}
	if newProved.WholeLine {
		t.Error("new handles must reflect the new line-span setting")
	}
	// Prior overlays were cleared via the old handles.
	if len(view.current) != 0 {
		t.Errorf("stale overlays remain after rebuild: %d styles", len(view.current))
	}

	// Subsequent batches use only new-generation handles.
	s.ApplyBatch(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		marker(verdict.KindProved, 1, 0, 5, ""),
	}})
	if _, ok := view.current[oldProved]; ok {
		t.Error("batch applied with a dead handle")
	}
	if len(view.current[newProved]) != 1 {
		t.Error("batch not applied with the new handle")
	}
}

func TestApplyBatchMultiplePanes(t *testing.T) {
	a1 := newFakeView("file:///a.tla")
	a2 := newFakeView("file:///a.tla")
	b := newFakeView("file:///b.tla")
	s := NewSynchronizer(fakeViews{a1, a2, b})
	s.RebuildStyles(true)

	s.ApplyBatch(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		marker(verdict.KindProved, 1, 0, 5, ""),
		marker(verdict.KindFailed, 3, 0, 9, "obligation failed"),
		marker(verdict.KindProved, 7, 2, 8, ""),
	}})

	proved := s.Registry().Handle(verdict.KindProved)
	failed := s.Registry().Handle(verdict.KindFailed)
	for _, view := range []*fakeView{a1, a2} {
		if len(view.current[proved]) != 2 {
			t.Errorf("proved entries = %d, want 2", len(view.current[proved]))
		}
		if len(view.current[failed]) != 1 {
			t.Errorf("failed entries = %d, want 1", len(view.current[failed]))
		}
		if view.current[failed][0].Hover != "obligation failed" {
			t.Errorf("hover = %q", view.current[failed][0].Hover)
		}
	}
	if b.calls != 0 {
		t.Error("editor on a different document must be untouched")
	}
}

func TestApplyBatchExactScenario(t *testing.T) {
	view := newFakeView("a.tla")
	s := NewSynchronizer(fakeViews{view})
	s.RebuildStyles(true)

	s.ApplyBatch(verdict.Batch{URI: "a.tla", Markers: []verdict.Marker{
		marker(verdict.KindProved, 1, 0, 5, ""),
	}})

	proved := s.Registry().Handle(verdict.KindProved)
	entries := view.current[proved]
	if len(entries) != 1 {
		t.Fatalf("proved entries = %d, want 1", len(entries))
	}
	want := verdict.Range{Start: verdict.Position{Line: 1}, End: verdict.Position{Line: 1, Character: 5}}
	if entries[0].Range != want {
		t.Errorf("range = %+v, want %+v", entries[0].Range, want)
	}
	for _, kind := range verdict.Kinds() {
		if kind == verdict.KindProved {
			continue
		}
		if got := view.current[s.Registry().Handle(kind)]; len(got) != 0 {
			t.Errorf("%v overlays = %d, want 0", kind, len(got))
		}
	}
}

func TestApplyBatchEmptyClears(t *testing.T) {
	view := newFakeView("file:///a.tla")
	s := NewSynchronizer(fakeViews{view})
	s.RebuildStyles(true)

	s.ApplyBatch(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		marker(verdict.KindProved, 1, 0, 5, ""),
		marker(verdict.KindPending, 2, 0, 5, ""),
	}})
	if len(view.current) == 0 {
		t.Fatal("setup: no overlays applied")
	}

	s.ApplyBatch(verdict.Batch{URI: "file:///a.tla"})
	if len(view.current) != 0 {
		t.Errorf("empty batch must clear every kind, %d styles remain", len(view.current))
	}
}

func TestApplyBatchDropsUnknownKinds(t *testing.T) {
	view := newFakeView("file:///a.tla")
	s := NewSynchronizer(fakeViews{view})
	s.RebuildStyles(true)

	s.ApplyBatch(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		marker(verdict.KindUnknown, 1, 0, 5, ""),
		marker(verdict.KindOmitted, 2, 0, 5, ""),
	}})

	for style, entries := range view.current {
		if style.Kind == verdict.KindOmitted {
			continue
		}
		t.Errorf("unexpected overlays under %v: %d", style.Kind, len(entries))
	}
	omitted := s.Registry().Handle(verdict.KindOmitted)
	if len(view.current[omitted]) != 1 {
		t.Errorf("omitted entries = %d, want 1", len(view.current[omitted]))
	}
}

func TestApplyBatchPreservesDuplicates(t *testing.T) {
	view := newFakeView("file:///a.tla")
	s := NewSynchronizer(fakeViews{view})
	s.RebuildStyles(true)

	m := marker(verdict.KindPending, 4, 0, 4, "")
	s.ApplyBatch(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{m, m}})

	pending := s.Registry().Handle(verdict.KindPending)
	if len(view.current[pending]) != 2 {
		t.Errorf("duplicate markers must both render, got %d", len(view.current[pending]))
	}
}

func TestConcurrentRebuildNeverLeavesStaleHandles(t *testing.T) {
	view := newFakeView("file:///a.tla")
	s := NewSynchronizer(fakeViews{view})
	s.RebuildStyles(true)

	batch := verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		marker(verdict.KindProved, 1, 0, 4, ""),
		marker(verdict.KindFailed, 2, 0, 4, "boom"),
	}}

	// Batches land on the transport read loop while rebuilds come from
	// configuration changes on another goroutine.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.ApplyBatch(batch)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.RebuildStyles(i%2 == 0)
		}
	}()
	wg.Wait()

	// Clearing the old handles and swapping the registry happen under
	// one lock, so after a final rebuild nothing may remain attached
	// to a discarded generation.
	s.RebuildStyles(true)
	gen := s.Registry().Generation()
	for style, entries := range view.current {
		if style.Generation() != gen && len(entries) > 0 {
			t.Fatalf("overlays survive under a discarded handle: kind=%v gen=%d current=%d",
				style.Kind, style.Generation(), gen)
		}
	}
}

func TestApplyBatchNoVisibleEditors(t *testing.T) {
	s := NewSynchronizer(fakeViews{})
	s.RebuildStyles(true)
	// Must not panic or error with nothing to render onto.
	s.ApplyBatch(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		marker(verdict.KindProved, 1, 0, 5, ""),
	}})
}
