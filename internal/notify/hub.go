// Package notify delivers change notifications keyed by item address.
package notify

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/shoplist/pkg/types"
)

// registration is one observer attached to an address.
type registration struct {
	id          string
	addr        types.Address
	descendants bool
	fn          types.Observer
}

// Hub routes change notifications to registered observers.
//
// An observer at address A receives a change at C when C == A, when C is
// under A and the observer asked for descendants, or when A is under C (a
// collection change reaches record observers). Delivery is synchronous on the
// notifying goroutine, in registration order.
type Hub struct {
	mu    sync.RWMutex
	regs  []*registration
	index map[string]int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{index: make(map[string]int)}
}

// Register attaches fn to addr and returns a handle for Unregister.
func (h *Hub) Register(addr types.Address, descendants bool, fn types.Observer) string {
	r := &registration{
		id:          newHandle(),
		addr:        addr,
		descendants: descendants,
		fn:          fn,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.index[r.id] = len(h.regs)
	h.regs = append(h.regs, r)
	return r.id
}

// Unregister removes the observer with the given handle. Unknown handles are
// ignored.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i, ok := h.index[id]
	if !ok {
		return
	}
	h.regs = append(h.regs[:i], h.regs[i+1:]...)
	delete(h.index, id)
	for j := i; j < len(h.regs); j++ {
		h.index[h.regs[j].id] = j
	}
}

// Notify delivers a change at addr to every matching observer. Observers run
// outside the hub lock, so they may register or unregister.
func (h *Hub) Notify(addr types.Address) {
	h.mu.RLock()
	var targets []types.Observer
	for _, r := range h.regs {
		if matches(r, addr) {
			targets = append(targets, r.fn)
		}
	}
	h.mu.RUnlock()

	for _, fn := range targets {
		fn(addr)
	}
}

// Len returns the number of registered observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.regs)
}

// Close drops every registration.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.regs = nil
	h.index = make(map[string]int)
}

func matches(r *registration, changed types.Address) bool {
	switch {
	case r.addr == changed:
		return true
	case isUnder(changed, r.addr):
		return r.descendants
	case isUnder(r.addr, changed):
		return true
	}
	return false
}

// isUnder reports whether child is a strict path descendant of parent.
func isUnder(child, parent types.Address) bool {
	return strings.HasPrefix(string(child), string(parent)+"/")
}

// newHandle generates a UUID v7 registration handle.
func newHandle() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
