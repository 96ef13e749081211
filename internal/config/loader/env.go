package loader

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/dshills/proofpane/internal/config"
)

// envOverrides mirrors the configuration fields settable from the
// environment. Pointer fields distinguish "unset" from a zero value so
// that absent variables never clobber file-loaded settings.
type envOverrides struct {
	Enabled         *bool    `env:"PROOFPANE_ENABLED"`
	Command         []string `env:"PROOFPANE_COMMAND" envSeparator:" "`
	LineSpanOverlay *bool    `env:"PROOFPANE_LINE_SPAN_OVERLAY"`
	Theme           *string  `env:"PROOFPANE_THEME"`
}

// ApplyEnv overlays PROOFPANE_* environment variables onto cfg.
// PROOFPANE_COMMAND is space-separated: executable followed by arguments.
func ApplyEnv(cfg *config.Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	if o.Enabled != nil {
		cfg.Proof.Enabled = *o.Enabled
	}
	if len(o.Command) > 0 {
		cfg.Proof.Command = o.Command
	}
	if o.LineSpanOverlay != nil {
		cfg.Proof.LineSpanOverlay = *o.LineSpanOverlay
	}
	if o.Theme != nil {
		cfg.UI.Theme = *o.Theme
	}
	return nil
}
