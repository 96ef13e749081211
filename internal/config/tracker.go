package config

// Source supplies the current proof configuration on demand. The host's
// configuration store satisfies this through a closure.
type Source func() Proof

// Tracker reads proof configuration from a Source and diffs each read
// against the previously retained snapshot. It has no side effects
// beyond updating that snapshot.
type Tracker struct {
	source Source
	prev   Proof
}

// NewTracker creates a tracker over the given source. The first Read
// reports changed=true unless the source matches the built-in defaults.
func NewTracker(source Source) *Tracker {
	return &Tracker{source: source, prev: Default().Proof}
}

// Read fetches the current proof configuration and reports whether it
// differs from the previous read. The retained snapshot is updated
// unconditionally, so two consecutive reads of identical configuration
// always report changed=false on the second.
func (t *Tracker) Read() (Proof, bool) {
	cur := t.source()
	changed := !cur.Equal(t.prev)
	t.prev = cur
	return cur, changed
}

// Last returns the most recently read snapshot.
func (t *Tracker) Last() Proof {
	return t.prev
}
