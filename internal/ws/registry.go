package ws

import "sync"

// Status is a connection-reported or aggregated presence state.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// Registry holds, per user, the set of live connections and the status each
// one last reported. It is the single shared mutable resource of the
// presence core; one lock guards the whole map, which is fine at the
// expected cardinality — fan-out writes happen outside the lock.
type Registry struct {
	mu    sync.RWMutex
	conns map[int]map[*Conn]Status
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[int]map[*Conn]Status)}
}

// Register adds a connection for the user with the default status online,
// creating the user's entry if absent.
func (r *Registry) Register(userID int, c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[userID]; !ok {
		r.conns[userID] = make(map[*Conn]Status)
	}
	r.conns[userID][c] = StatusOnline
}

// Deregister removes the connection, deleting the user's entry when it
// becomes empty. Deregistering an absent connection is a no-op, so
// concurrent cleanup paths cannot corrupt the entry. Returns whether the
// connection was actually removed and whether the entry is now gone.
func (r *Registry) Deregister(userID int, c *Conn) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		return false, true
	}
	if _, ok := set[c]; !ok {
		return false, len(set) == 0
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, userID)
		return true, true
	}
	return true, false
}

// SetStatus updates the reported status of a live connection. Stale
// messages arriving after disconnect hit the no-op path and return false.
func (r *Registry) SetStatus(userID int, c *Conn, status Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	set[c] = status
	return true
}

// Snapshot returns a defensive copy of the user's connection set so that
// delivery can iterate without holding the registry lock.
func (r *Registry) Snapshot(userID int) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.conns[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// AllUserIDs enumerates users with at least one live connection.
func (r *Registry) AllUserIDs() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// aggregate derives the user's single externally observable status: offline
// when no entry exists, online when any connection reports online, away
// otherwise. Online dominates away so a user active on one device is not
// shown idle because another device sleeps.
func (r *Registry) aggregate(userID int) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.conns[userID]
	if !ok || len(set) == 0 {
		return StatusOffline
	}
	for _, s := range set {
		if s == StatusOnline {
			return StatusOnline
		}
	}
	return StatusAway
}
