package registry

import (
	"iter"
	"slices"
	"sync"
)

// Conn is one live subscriber. Implementations must be comparable; the
// registry identifies connections by interface equality.
type Conn interface {
	// ID returns a stable identifier used in logs.
	ID() string

	// Send queues data for delivery. It must not block on the network.
	Send(data []byte) error
}

// Registry is an ordered set of connections, oldest first.
type Registry struct {
	mu    sync.RWMutex
	conns []Conn
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Add appends c. Adding a connection that is already registered does nothing.
func (r *Registry) Add(c Conn) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.conns, c) {
		return
	}
	r.conns = append(r.conns, c)
}

// Remove deletes c and reports whether it was present.
func (r *Registry) Remove(c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.conns, c)
	if i < 0 {
		return false
	}
	r.conns = slices.Delete(r.conns, i, i+1)
	return true
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot returns a copy of the registered connections in arrival order.
func (r *Registry) Snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.conns)
}

// All returns a restartable sequence over the connections registered at the
// moment each iteration begins.
func (r *Registry) All() iter.Seq[Conn] {
	return func(yield func(Conn) bool) {
		for _, c := range r.Snapshot() {
			if !yield(c) {
				return
			}
		}
	}
}
