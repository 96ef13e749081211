// Package main is the entry point for the proofpane terminal host.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/dshills/proofpane/internal/bridge"
	"github.com/dshills/proofpane/internal/config"
	"github.com/dshills/proofpane/internal/config/loader"
	"github.com/dshills/proofpane/internal/config/notify"
	"github.com/dshills/proofpane/internal/config/watcher"
	"github.com/dshills/proofpane/internal/host/term"
	"github.com/dshills/proofpane/internal/plugin"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

type cliOptions struct {
	ConfigPath string
	File       string
}

func run() int {
	opts := parseFlags()

	state := newConfigState(opts.ConfigPath)
	cfg, err := state.reload()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var termOpts []term.Option
	if cfg.UI.Theme == "light" {
		termOpts = append(termOpts, term.WithLightTheme())
	}
	h, err := term.New(opts.File, termOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open terminal: %v\n", err)
		return 1
	}

	hooks := plugin.Load(cfg.Hooks)

	b := bridge.New(h, state.proof, bridge.WithHooks(hooks))
	defer b.Stop()

	h.SetStyles(b.Styles())

	// A spawn failure is logged by the bridge; the host stays up and
	// the bridge stays inert until the configuration changes.
	_ = b.Start()
	openDocument(b, h)

	notifier := notify.New()
	notifier.Subscribe(func(notify.Change) {
		b.ConfigChanged()
		openDocument(b, h)
	})

	w, err := watcher.New(opts.ConfigPath, func(path string) {
		old := state.current()
		next, err := state.reload()
		if err != nil {
			log.Printf("config reload: %v", err)
			return
		}
		notifier.Notify(notify.Change{Old: old, New: next, Source: path})
	})
	if err != nil {
		log.Printf("config watch: %v", err)
	} else {
		defer w.Close()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		h.Close()
	}()

	if err := h.Run(bridge.CommandCheckStep); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// openDocument announces the host's document to the checker. Called
// after every (re)start since a fresh connection has no document state.
func openDocument(b *bridge.Bridge, h *term.Host) {
	if !b.IsRunning() {
		return
	}
	v := h.View()
	if err := b.OpenDocument(v.URI(), v.Version(), v.Content()); err != nil {
		log.Printf("open document: %v", err)
	}
}

// configState holds the most recent configuration loaded from disk,
// shared between the bridge's read path and the watcher's reload path.
type configState struct {
	path string

	mu  sync.Mutex
	cfg config.Config
}

func newConfigState(path string) *configState {
	return &configState{path: path, cfg: config.Default()}
}

// reload reads the file and environment overrides and publishes the
// result. A missing file yields the defaults.
func (s *configState) reload() (config.Config, error) {
	cfg, err := loader.NewTOMLLoader(s.path).Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := loader.ApplyEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return cfg, nil
}

func (s *configState) current() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// proof is the configuration source handed to the bridge.
func (s *configState) proof() config.Proof {
	return s.current().Proof
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Proofpane - proof-state overlay viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: proofpane [options] <file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  proofpane Spec.tla                  Open a module\n")
		fmt.Fprintf(os.Stderr, "  proofpane -c pp.toml Spec.tla       Use a specific config\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Proofpane %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.File = flag.Arg(0)

	if opts.ConfigPath == "" {
		opts.ConfigPath = defaultConfigPath()
	}
	return opts
}

// defaultConfigPath is ~/.config/proofpane/proofpane.toml (or the OS
// equivalent), falling back to the working directory.
func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "proofpane.toml"
	}
	return filepath.Join(dir, "proofpane", "proofpane.toml")
}
