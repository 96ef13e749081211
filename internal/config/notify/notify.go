// Package notify provides change notification for configuration reloads.
//
// Components subscribe to receive the freshly loaded configuration
// whenever the file watcher (or any other caller) publishes a reload.
// Delivery is synchronous and in subscription order: the bridge core is
// single-threaded by design, and handlers must observe reloads in the
// order they happen.
package notify

import (
	"sync"

	"github.com/dshills/proofpane/internal/config"
)

// Change describes one configuration reload.
type Change struct {
	// Old is the configuration before the reload.
	Old config.Config

	// New is the freshly loaded configuration.
	New config.Config

	// Source identifies what triggered the reload ("file", "startup", ...).
	Source string
}

// Observer is called for each configuration change.
type Observer func(change Change)

// Subscription represents an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages configuration change subscriptions.
type Notifier struct {
	mu        sync.Mutex
	observers map[uint64]Observer
	order     []uint64
	nextID    uint64
}

// New creates a Notifier.
func New() *Notifier {
	return &Notifier{observers: make(map[uint64]Observer)}
}

// Subscribe registers an observer for all configuration changes.
func (n *Notifier) Subscribe(obs Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.observers[id] = obs
	n.order = append(n.order, id)
	return &Subscription{id: id, notifier: n}
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.observers, id)
	for i, oid := range n.order {
		if oid == id {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// Notify delivers a change to every observer, in subscription order.
func (n *Notifier) Notify(change Change) {
	n.mu.Lock()
	observers := make([]Observer, 0, len(n.order))
	for _, id := range n.order {
		if obs, ok := n.observers[id]; ok {
			observers = append(observers, obs)
		}
	}
	n.mu.Unlock()

	for _, obs := range observers {
		obs(change)
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.observers)
}
