// Package notify fans table state updates out to subscribers.
package notify

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/omahareader/internal/readmodel"
)

// Subscriber receives every update published while it is registered.
type Subscriber func(readmodel.Payload) error

// SubscriberFunc adapts a function that cannot fail.
func SubscriberFunc(fn func(readmodel.Payload)) Subscriber {
	return func(p readmodel.Payload) error {
		fn(p)
		return nil
	}
}

type entry struct {
	id   uint64
	name string
	fn   Subscriber
}

// Notifier is an ordered registry of subscribers. Updates are delivered
// synchronously in registration order; nothing is buffered for
// subscribers that register later.
type Notifier struct {
	mu      sync.RWMutex
	entries []entry
	nextID  uint64
	logger  *log.Logger
}

func New(logger *log.Logger) *Notifier {
	return &Notifier{logger: logger.WithPrefix("notify")}
}

// Subscribe registers fn under a name used in log output and returns a
// function that removes it.
func (n *Notifier) Subscribe(name string, fn Subscriber) (unsubscribe func()) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.entries = append(n.entries, entry{id: id, name: name, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, e := range n.entries {
		if e.id == id {
			n.entries = append(n.entries[:i:i], n.entries[i+1:]...)
			return
		}
	}
}

// Notify delivers p to every subscriber. A subscriber that returns an error
// or panics is logged and skipped; the rest still receive the update.
func (n *Notifier) Notify(p readmodel.Payload) {
	n.mu.RLock()
	entries := make([]entry, len(n.entries))
	copy(entries, n.entries)
	n.mu.RUnlock()

	for _, e := range entries {
		if err := n.deliver(e, p); err != nil {
			n.logger.Error("subscriber failed", "subscriber", e.name, "error", err)
		}
	}
}

func (n *Notifier) deliver(e entry, p readmodel.Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.fn(p)
}

// Count returns the number of registered subscribers.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.entries)
}

// Clear removes every subscriber.
func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = nil
}
