package config

import "slices"

// Config is the root configuration snapshot.
type Config struct {
	Proof Proof    `toml:"proof"`
	UI    UI       `toml:"ui"`
	Hooks []string `toml:"hooks"`
}

// Proof configures the connection to the external proof checker.
type Proof struct {
	// Enabled turns the proof bridge on. Off by default.
	Enabled bool `toml:"enabled"`

	// Command is the checker launch command: executable followed by
	// arguments. An empty command leaves the bridge inert even when
	// Enabled is true.
	Command []string `toml:"command"`

	// LineSpanOverlay renders verdict overlays across whole lines
	// rather than the exact reported character span.
	LineSpanOverlay bool `toml:"line_span_overlay"`
}

// UI configures the terminal host presentation.
type UI struct {
	// Theme selects the presentation theme ("dark" or "light").
	Theme string `toml:"theme"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Proof: Proof{
			Enabled:         false,
			Command:         nil,
			LineSpanOverlay: true,
		},
		UI: UI{Theme: "dark"},
	}
}

// Equal reports whether two proof sections are structurally identical.
// Command is compared element-wise, order-sensitive.
func (p Proof) Equal(q Proof) bool {
	return p.Enabled == q.Enabled &&
		p.LineSpanOverlay == q.LineSpanOverlay &&
		slices.Equal(p.Command, q.Command)
}

// Active reports whether the proof section describes a launchable
// checker: enabled with a non-empty command.
func (p Proof) Active() bool {
	return p.Enabled && len(p.Command) > 0
}
