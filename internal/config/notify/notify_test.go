package notify

import (
	"testing"

	"github.com/dshills/proofpane/internal/config"
)

func TestNotifyDeliversInSubscriptionOrder(t *testing.T) {
	n := New()
	var got []int
	n.Subscribe(func(Change) { got = append(got, 1) })
	n.Subscribe(func(Change) { got = append(got, 2) })
	n.Subscribe(func(Change) { got = append(got, 3) })

	n.Notify(Change{Source: "test"})

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", got)
	}
}

func TestNotifyCarriesOldAndNew(t *testing.T) {
	n := New()
	var seen Change
	n.Subscribe(func(c Change) { seen = c })

	old := config.Default()
	upd := config.Default()
	upd.Proof.Enabled = true
	n.Notify(Change{Old: old, New: upd, Source: "file"})

	if seen.Old.Proof.Enabled || !seen.New.Proof.Enabled {
		t.Errorf("change payload wrong: old=%v new=%v", seen.Old.Proof.Enabled, seen.New.Proof.Enabled)
	}
	if seen.Source != "file" {
		t.Errorf("source = %q", seen.Source)
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()
	calls := 0
	sub := n.Subscribe(func(Change) { calls++ })
	n.Subscribe(func(Change) {})

	n.Notify(Change{})
	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent
	n.Notify(Change{})

	if calls != 1 {
		t.Errorf("unsubscribed observer called %d times, want 1", calls)
	}
	if n.Len() != 1 {
		t.Errorf("Len() = %d, want 1", n.Len())
	}
}
