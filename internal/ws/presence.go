package ws

import (
	"sync"

	"go.uber.org/zap"

	"messenger-service/internal/observability"
)

// Presence turns per-connection statuses into one broadcastable state per
// user. It owns the last-broadcast cache, separate from the registry, so
// repeated non-transitioning connection events never re-broadcast.
type Presence struct {
	registry   *Registry
	dispatcher *Dispatcher
	log        *zap.SugaredLogger

	mu   sync.Mutex
	last map[int]Status
}

func newPresence(registry *Registry, dispatcher *Dispatcher, log *zap.SugaredLogger) *Presence {
	return &Presence{
		registry:   registry,
		dispatcher: dispatcher,
		log:        log,
		last:       make(map[int]Status),
	}
}

// OnConnectionChange recomputes the user's aggregate status and, only on an
// actual transition, broadcasts it to every other connected user. Called
// after register, deregister, explicit status changes and dispatcher
// evictions; it is idempotent, so duplicate calls are harmless.
func (p *Presence) OnConnectionChange(userID int) {
	agg := p.registry.aggregate(userID)

	p.mu.Lock()
	prev, ok := p.last[userID]
	if !ok {
		prev = StatusOffline
	}
	if agg == prev {
		p.mu.Unlock()
		return
	}
	if agg == StatusOffline {
		delete(p.last, userID)
	} else {
		p.last[userID] = agg
	}
	p.mu.Unlock()

	p.log.Infow("presence transition", "user_id", userID, "from", prev, "to", agg)
	observability.IncPresenceTransition(string(agg))

	event := Event{Type: EventUserStatus, Data: UserStatusData{
		UserID: userID,
		Status: agg,
		Online: agg != StatusOffline,
	}}
	for _, otherID := range p.registry.AllUserIDs() {
		if otherID != userID {
			p.dispatcher.SendToUser(event, otherID)
		}
	}
}

// SetExplicitStatus applies a user-initiated status change from one of their
// connections. Only the client-settable values are accepted; anything else
// is dropped without an error, matching the lenient protocol edge.
func (p *Presence) SetExplicitStatus(userID int, c *Conn, status Status) {
	if status != StatusOnline && status != StatusAway {
		return
	}
	if !p.registry.SetStatus(userID, c, status) {
		return
	}
	p.OnConnectionChange(userID)
}

// OnlineUsers returns the currently broadcast status per connected user,
// the payload of the online_list event sent to freshly registered clients.
func (p *Presence) OnlineUsers() map[int]Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[int]Status, len(p.last))
	for id, s := range p.last {
		out[id] = s
	}
	return out
}
