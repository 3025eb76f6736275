package ws

import (
	"go.uber.org/zap"

	"messenger-service/internal/observability"
)

// Broadcaster is the delivery surface the rest of the service uses. Hub
// implements it; tests substitute a mock.
type Broadcaster interface {
	SendToUser(event Event, userID int)
	SendToMany(event Event, userIDs []int)
	BroadcastToAll(event Event)
}

// Hub wires the registry, the presence aggregator and the dispatcher
// together and owns their lifecycle. It is constructed once in main and
// injected into everything that needs it; there is no package-level
// instance.
type Hub struct {
	registry   *Registry
	presence   *Presence
	dispatcher *Dispatcher
	log        *zap.SugaredLogger
}

// NewHub builds an empty hub.
func NewHub(log *zap.SugaredLogger) *Hub {
	registry := NewRegistry()
	dispatcher := &Dispatcher{registry: registry, log: log}
	presence := newPresence(registry, dispatcher, log)
	dispatcher.onEmpty = presence.OnConnectionChange
	return &Hub{
		registry:   registry,
		presence:   presence,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Register hands a freshly authenticated connection to the registry and
// lets presence broadcast the transition, if any.
func (h *Hub) Register(userID int, c *Conn) {
	h.registry.Register(userID, c)
	observability.IncWSActive()
	h.presence.OnConnectionChange(userID)
}

// Deregister removes a connection on any close path. Safe to call for a
// connection the dispatcher already evicted.
func (h *Hub) Deregister(userID int, c *Conn) {
	removed, _ := h.registry.Deregister(userID, c)
	if !removed {
		return
	}
	observability.DecWSActive()
	h.presence.OnConnectionChange(userID)
}

// SetExplicitStatus routes a client status_update into the aggregator.
func (h *Hub) SetExplicitStatus(userID int, c *Conn, status Status) {
	h.presence.SetExplicitStatus(userID, c, status)
}

// OnlineUsers returns the current presence roster.
func (h *Hub) OnlineUsers() map[int]Status {
	return h.presence.OnlineUsers()
}

// SendToUser delivers to all of one user's connections.
func (h *Hub) SendToUser(event Event, userID int) {
	h.dispatcher.SendToUser(event, userID)
}

// SendToMany delivers to an explicit recipient list.
func (h *Hub) SendToMany(event Event, userIDs []int) {
	h.dispatcher.SendToMany(event, userIDs)
}

// BroadcastToAll delivers to every currently connected user.
func (h *Hub) BroadcastToAll(event Event) {
	h.dispatcher.SendToMany(event, h.registry.AllUserIDs())
}

var _ Broadcaster = (*Hub)(nil)
