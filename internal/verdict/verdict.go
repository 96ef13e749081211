// Package verdict defines the proof-state data model reported by the
// external proof checker: verdict kinds, source ranges, and batches.
package verdict

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the outcome reported for one proof step.
// The set is closed; unrecognized wire values map to KindUnknown.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindProved
	KindFailed
	KindOmitted
	KindMissing
	KindPending
	KindProgress
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindProved:
		return "proved"
	case KindFailed:
		return "failed"
	case KindOmitted:
		return "omitted"
	case KindMissing:
		return "missing"
	case KindPending:
		return "pending"
	case KindProgress:
		return "progress"
	default:
		return "unknown"
	}
}

// ParseKind maps a wire value to a Kind. The second result is false for
// values not in the known set; callers decide whether to drop the marker.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "proved":
		return KindProved, true
	case "failed":
		return KindFailed, true
	case "omitted":
		return KindOmitted, true
	case "missing":
		return KindMissing, true
	case "pending":
		return KindPending, true
	case "progress":
		return KindProgress, true
	default:
		return KindUnknown, false
	}
}

// Kinds returns the known kinds in fixed declaration order.
func Kinds() []Kind {
	return []Kind{KindProved, KindFailed, KindOmitted, KindMissing, KindPending, KindProgress}
}

// Position is a zero-based (line, character) location in a document.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Before reports whether p precedes q in document order.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Character < q.Character
}

// Range is a half-open span [Start, End) within one document.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsEmpty reports whether the range covers no characters.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Valid reports whether Start does not follow End.
func (r Range) Valid() bool {
	return !r.End.Before(r.Start)
}

// Marker is one reported outcome for one source range. Markers are
// transient: built from a notification, rendered, then discarded.
type Marker struct {
	Range Range
	State Kind
	Hover string
}

// Batch is the unit of an inbound proof-state notification: a target
// document plus the markers reported for it. Marker order carries no
// meaning and duplicates are legitimate.
type Batch struct {
	URI     string
	Markers []Marker
}

// wireMarker mirrors the notification payload for one marker.
type wireMarker struct {
	Range Range  `json:"range"`
	State string `json:"state"`
	Hover string `json:"hover"`
}

// wireBatch mirrors the tlapm/proofStates notification params.
type wireBatch struct {
	URI     string       `json:"uri"`
	Markers []wireMarker `json:"markers"`
}

// DecodeBatch decodes proof-state notification params. Markers with an
// unrecognized state are retained as KindUnknown so the synchronizer can
// drop them during partitioning; a future checker may report kinds this
// client does not know yet.
func DecodeBatch(params json.RawMessage) (Batch, error) {
	var w wireBatch
	if err := json.Unmarshal(params, &w); err != nil {
		return Batch{}, fmt.Errorf("decode proof states: %w", err)
	}
	b := Batch{URI: w.URI, Markers: make([]Marker, 0, len(w.Markers))}
	for _, m := range w.Markers {
		kind, _ := ParseKind(m.State)
		b.Markers = append(b.Markers, Marker{Range: m.Range, State: kind, Hover: m.Hover})
	}
	return b, nil
}
