// Package bridge composes the proof bridge: configuration tracking,
// checker lifecycle, overlay synchronization, command relay, and the
// optional Lua hooks. It is the only package that knows about all of
// them.
package bridge

import (
	"log"
	"sync"

	"github.com/dshills/proofpane/internal/config"
	"github.com/dshills/proofpane/internal/host"
	"github.com/dshills/proofpane/internal/lsp"
	"github.com/dshills/proofpane/internal/overlay"
	"github.com/dshills/proofpane/internal/plugin"
	"github.com/dshills/proofpane/internal/verdict"
)

// CommandCheckStep is the user-facing command name for checking the
// proof step under the current selection.
const CommandCheckStep = "proof.checkStep"

// Bridge wires the proof-state pipeline into a host editor.
//
// Start and Stop run on the host's goroutine while ConfigChanged
// arrives from the file watcher; mu serializes the three. Inbound
// batches stay outside it, the synchronizer has its own lock.
type Bridge struct {
	host    host.Host
	tracker *config.Tracker
	manager *lsp.Manager
	relay   *lsp.Relay
	sync    *overlay.Synchronizer
	hooks   *plugin.Hooks

	mu       sync.Mutex
	lineSpan bool
}

// Option configures a Bridge.
type Option func(*options)

type options struct {
	dial  lsp.DialFunc
	hooks *plugin.Hooks
}

// WithDial replaces the checker connection factory. Tests inject
// fakes here.
func WithDial(dial lsp.DialFunc) Option {
	return func(o *options) { o.dial = dial }
}

// WithHooks attaches loaded Lua hooks.
func WithHooks(h *plugin.Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// New creates a bridge over the given host and configuration source.
// Call Start to bring it up.
func New(h host.Host, source config.Source, opts ...Option) *Bridge {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := &Bridge{
		host:    h,
		tracker: config.NewTracker(source),
		sync:    overlay.NewSynchronizer(host.Views(h)),
		hooks:   o.hooks,
	}

	var mgrOpts []lsp.ManagerOption
	if o.dial != nil {
		mgrOpts = append(mgrOpts, lsp.WithDial(o.dial))
	}
	b.manager = lsp.NewManager(b.onBatch, mgrOpts...)
	b.relay = lsp.NewRelay(b.manager)
	return b
}

// Start reads the configuration, builds the overlay styles, registers
// the check-step command, and launches the checker when the
// configuration allows it.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg, _ := b.tracker.Read()

	b.lineSpan = cfg.LineSpanOverlay
	b.sync.RebuildStyles(cfg.LineSpanOverlay)

	b.host.RegisterCommand(CommandCheckStep, b.checkStep)

	if err := b.manager.Start(cfg); err != nil {
		// Spawn failures surface to the host's error channel via the
		// log; the bridge stays up and inert until the config changes.
		log.Printf("checker start: %v", err)
		return err
	}
	return nil
}

// Stop tears the checker down and releases the hooks.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.manager.Stop()
	if b.hooks != nil {
		b.hooks.Close()
	}
}

// ConfigChanged is the host's configuration-change entry point. It
// re-reads the configuration and, only when a proof setting materially
// changed, restarts the checker and rebuilds overlay styles. Equal
// snapshots are a no-op, so unrelated configuration edits cause no
// process churn and no overlay flicker.
func (b *Bridge) ConfigChanged() {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg, changed := b.tracker.Read()
	if !changed {
		return
	}

	if cfg.LineSpanOverlay != b.lineSpan {
		b.lineSpan = cfg.LineSpanOverlay
		b.sync.RebuildStyles(cfg.LineSpanOverlay)
	}

	if err := b.manager.Restart(cfg); err != nil {
		log.Printf("checker restart: %v", err)
	}
}

// DocumentOpener is implemented by connections that accept document
// lifecycle notifications. Fake connections in tests usually do not.
type DocumentOpener interface {
	OpenDocument(uri string, version int, content string) error
}

// OpenDocument announces a document to the checker, if one is
// connected and it tracks documents. Call it after Start and after
// every configuration change, since a restart drops the previous
// connection's document state.
func (b *Bridge) OpenDocument(uri string, version int, content string) error {
	conn := b.manager.Connection()
	if conn == nil {
		return nil
	}
	op, ok := conn.(DocumentOpener)
	if !ok {
		return nil
	}
	return op.OpenDocument(uri, version, content)
}

// IsRunning reports whether the checker connection is live.
func (b *Bridge) IsRunning() bool {
	return b.manager.IsRunning()
}

// Styles exposes the overlay style registry for the host's renderer.
func (b *Bridge) Styles() *overlay.Registry {
	return b.sync.Registry()
}

// checkStep handles the user command against the active editor.
func (b *Bridge) checkStep(view host.EditorView) {
	if view == nil {
		return
	}
	if err := b.relay.CheckStep(view.URI(), view.Version(), view.Selection()); err != nil {
		log.Printf("check step: %v", err)
	}
}

// onBatch renders one inbound verdict batch and feeds the hooks.
// Runs on the transport read loop, preserving per-document arrival
// order.
func (b *Bridge) onBatch(batch verdict.Batch) {
	b.sync.ApplyBatch(batch)
	if b.hooks != nil {
		b.hooks.OnBatch(batch)
	}
}
