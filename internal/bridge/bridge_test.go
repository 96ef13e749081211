package bridge

import (
	"testing"

	"github.com/dshills/proofpane/internal/config"
	"github.com/dshills/proofpane/internal/host"
	"github.com/dshills/proofpane/internal/lsp"
	"github.com/dshills/proofpane/internal/verdict"
)

type fakeConn struct {
	checks  []string
	lastVer int
	lastSel verdict.Range
	closed  bool
	deliver lsp.BatchFunc
}

func (c *fakeConn) CheckStep(uri string, version int, sel verdict.Range) error {
	c.checks = append(c.checks, uri)
	c.lastVer = version
	c.lastSel = sel
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeDialer struct {
	conns []*fakeConn
}

func (d *fakeDialer) dial(cfg config.Proof, onBatch lsp.BatchFunc) (lsp.Connection, error) {
	c := &fakeConn{deliver: onBatch}
	d.conns = append(d.conns, c)
	return c, nil
}

func activeConfig() config.Proof {
	return config.Proof{Enabled: true, Command: []string{"checker"}, LineSpanOverlay: true}
}

func setup(t *testing.T, cfg *config.Proof) (*Bridge, *host.Fake, *fakeDialer) {
	t.Helper()
	h := host.NewFake()
	d := &fakeDialer{}
	b := New(h, func() config.Proof { return *cfg }, WithDial(d.dial))
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b, h, d
}

func TestDisabledFeatureIsInert(t *testing.T) {
	cfg := config.Default().Proof
	b, h, d := setup(t, &cfg)

	ed := host.NewFakeEditor("file:///a.tla", 1)
	h.AddEditor(ed)

	if b.IsRunning() {
		t.Fatal("disabled config must not start the checker")
	}
	if !h.Invoke(CommandCheckStep) {
		t.Fatal("command not registered")
	}
	if len(d.conns) != 0 {
		t.Error("check step with disabled feature must send nothing")
	}
}

func TestCheckStepCarriesAddressing(t *testing.T) {
	cfg := activeConfig()
	_, h, d := setup(t, &cfg)

	ed := host.NewFakeEditor("file:///a.tla", 7)
	ed.Sel = verdict.Range{
		Start: verdict.Position{Line: 3, Character: 2},
		End:   verdict.Position{Line: 3, Character: 9},
	}
	h.AddEditor(ed)

	h.Invoke(CommandCheckStep)

	conn := d.conns[0]
	if len(conn.checks) != 1 || conn.checks[0] != "file:///a.tla" {
		t.Fatalf("checks = %v", conn.checks)
	}
	if conn.lastVer != 7 {
		t.Errorf("version = %d, want 7", conn.lastVer)
	}
	if conn.lastSel != ed.Sel {
		t.Errorf("selection = %+v", conn.lastSel)
	}
}

func TestBatchRendersOnMatchingPanes(t *testing.T) {
	cfg := activeConfig()
	b, h, d := setup(t, &cfg)

	a1 := host.NewFakeEditor("file:///a.tla", 1)
	a2 := host.NewFakeEditor("file:///a.tla", 1)
	other := host.NewFakeEditor("file:///b.tla", 1)
	h.AddEditor(a1)
	h.AddEditor(a2)
	h.AddEditor(other)

	d.conns[0].deliver(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		{
			Range: verdict.Range{Start: verdict.Position{Line: 1}, End: verdict.Position{Line: 1, Character: 5}},
			State: verdict.KindProved,
		},
	}})

	proved := b.Styles().Handle(verdict.KindProved)
	for _, ed := range []*host.FakeEditor{a1, a2} {
		entries := ed.EntriesFor(proved)
		if len(entries) != 1 {
			t.Fatalf("proved entries = %d, want 1", len(entries))
		}
	}
	for _, kind := range verdict.Kinds() {
		if kind == verdict.KindProved {
			continue
		}
		if len(a1.EntriesFor(b.Styles().Handle(kind))) != 0 {
			t.Errorf("unexpected %v overlays", kind)
		}
	}
	if other.SetCalls != 0 {
		t.Error("pane on another document must be untouched")
	}
}

func TestUnchangedConfigDoesNotRestart(t *testing.T) {
	cfg := activeConfig()
	b, _, d := setup(t, &cfg)

	b.ConfigChanged()
	b.ConfigChanged()

	if len(d.conns) != 1 {
		t.Fatalf("spawned %d connections, want 1", len(d.conns))
	}
	if d.conns[0].closed {
		t.Error("unchanged config must not tear down the connection")
	}
}

func TestConfigChangeRestarts(t *testing.T) {
	cfg := activeConfig()
	b, _, d := setup(t, &cfg)

	cfg.Command = []string{"checker", "--verbose"}
	b.ConfigChanged()

	if len(d.conns) != 2 {
		t.Fatalf("spawned %d connections, want 2", len(d.conns))
	}
	if !d.conns[0].closed {
		t.Error("prior connection not closed on restart")
	}
	if !b.IsRunning() {
		t.Error("bridge not running after restart")
	}

	cfg.Enabled = false
	b.ConfigChanged()
	if b.IsRunning() {
		t.Error("disable must stop the checker")
	}
	if !d.conns[1].closed {
		t.Error("connection not closed on disable")
	}
}

func TestLineSpanFlipRebuildsStyles(t *testing.T) {
	cfg := activeConfig()
	b, h, d := setup(t, &cfg)

	ed := host.NewFakeEditor("file:///a.tla", 1)
	h.AddEditor(ed)

	oldProved := b.Styles().Handle(verdict.KindProved)
	gen := b.Styles().Generation()

	d.conns[0].deliver(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		{State: verdict.KindProved},
	}})
	if len(ed.EntriesFor(oldProved)) != 1 {
		t.Fatal("setup: overlay not applied")
	}

	cfg.LineSpanOverlay = false
	b.ConfigChanged()

	if b.Styles().Generation() != gen+1 {
		t.Errorf("generation = %d, want %d", b.Styles().Generation(), gen+1)
	}
	if len(ed.EntriesFor(oldProved)) != 0 {
		t.Error("stale overlays remain under the prior handle")
	}
	newProved := b.Styles().Handle(verdict.KindProved)
	if newProved == oldProved || newProved.WholeLine {
		t.Errorf("new handle wrong: %+v", newProved)
	}

	// Subsequent batches land under the fresh handles only.
	d.conns[1].deliver(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		{State: verdict.KindProved},
	}})
	if len(ed.EntriesFor(newProved)) != 1 {
		t.Error("batch after rebuild not applied with new handle")
	}
}

func TestEmptyBatchClearsDocument(t *testing.T) {
	cfg := activeConfig()
	b, h, d := setup(t, &cfg)

	ed := host.NewFakeEditor("file:///a.tla", 1)
	h.AddEditor(ed)

	d.conns[0].deliver(verdict.Batch{URI: "file:///a.tla", Markers: []verdict.Marker{
		{State: verdict.KindPending}, {State: verdict.KindFailed},
	}})
	d.conns[0].deliver(verdict.Batch{URI: "file:///a.tla"})

	for _, kind := range verdict.Kinds() {
		if len(ed.EntriesFor(b.Styles().Handle(kind))) != 0 {
			t.Errorf("%v overlays survive an empty batch", kind)
		}
	}
}
