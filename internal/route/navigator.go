// Package route decides which client routes may be shown and performs
// client-side navigation.
package route

import (
	"sync"

	"github.com/neuropassword/npass/internal/events"
)

// Navigator performs client-side navigation.
type Navigator interface {
	Navigate(to string, replace bool)
}

// History is an in-memory navigation stack. It publishes a navigate event
// for every change.
type History struct {
	mu      sync.Mutex
	entries []string
	bus     *events.EventBus
}

// NewHistory creates a history positioned at start.
func NewHistory(start string, bus *events.EventBus) *History {
	return &History{entries: []string{start}, bus: bus}
}

// Navigate moves to path. With replace the current entry is overwritten
// instead of pushed.
func (h *History) Navigate(to string, replace bool) {
	h.mu.Lock()
	from := h.entries[len(h.entries)-1]
	if replace {
		h.entries[len(h.entries)-1] = to
	} else {
		h.entries = append(h.entries, to)
	}
	h.mu.Unlock()

	h.bus.PublishNavigate(from, to, replace)
}

// Current returns the path being shown.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of the stack, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}
