package relay

import "sync"

// record is the mutable per-connection state the core tracks: the display
// name (set once) and the current room, both empty until the first join.
type record struct {
	name string
	room string
}

// Registry tracks every live connection identity. It owns no sockets and
// never sends; the transport layer maps identities back to connections.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*record
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*record)}
}

// Bind registers a new connection identity with name and room unset.
// Binding an already-bound identity is a no-op.
func (r *Registry) Bind(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		r.conns[id] = &record{}
	}
}

// SetName sets the connection's display name. The name is immutable once
// set; a second call returns ErrAlreadyNamed.
func (r *Registry) SetName(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.conns[id]
	if !ok {
		return ErrUnknownConnection
	}
	if rec.name != "" {
		return ErrAlreadyNamed
	}
	rec.name = name
	return nil
}

// Name returns the connection's display name, if set.
func (r *Registry) Name(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.conns[id]
	if !ok || rec.name == "" {
		return "", false
	}
	return rec.name, true
}

// SetRoom records the connection's current room.
func (r *Registry) SetRoom(id, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.conns[id]; ok {
		rec.room = roomID
	}
}

// ClearRoom clears the connection's current room.
func (r *Registry) ClearRoom(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.conns[id]; ok {
		rec.room = ""
	}
}

// CurrentRoom returns the connection's current room, if any.
func (r *Registry) CurrentRoom(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.conns[id]
	if !ok || rec.room == "" {
		return "", false
	}
	return rec.room, true
}

// Remove releases all state for a connection. Removing an unknown identity
// is a no-op, so disconnect handling stays idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Count returns the number of bound connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
