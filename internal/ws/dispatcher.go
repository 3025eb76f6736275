package ws

import (
	"context"
	"time"

	"go.uber.org/zap"

	"messenger-service/internal/observability"
)

// Dispatcher delivers events to users' live connections. It never holds the
// registry lock across a transport write: it snapshots the connection set,
// releases, then delivers, so one slow client cannot stall the registry.
type Dispatcher struct {
	registry *Registry
	log      *zap.SugaredLogger

	// onEmpty is invoked after an eviction empties a user's entry, so the
	// resulting offline transition converges without an explicit disconnect
	// from the transport. Wired to Presence.OnConnectionChange by NewHub.
	onEmpty func(userID int)
}

// SendToUser delivers the event to every live connection of the user. A
// failed write closes and evicts that connection only; delivery to the
// user's other connections continues and nothing is raised to the caller.
func (d *Dispatcher) SendToUser(event Event, userID int) {
	conns := d.registry.Snapshot(userID)

	var dead []*Conn
	for _, c := range conns {
		if err := c.Send(event); err != nil {
			d.log.Warnw("websocket write failed, evicting connection",
				"user_id", userID, "conn_id", c.Info().ConnID, "event", event.Type, "error", err)
			_ = c.Close()
			dead = append(dead, c)
		}
	}
	if len(dead) == 0 {
		return
	}

	emptied := false
	for _, c := range dead {
		removed, empty := d.registry.Deregister(userID, c)
		if removed && empty {
			emptied = true
		}
		observability.IncWSEvent("ws_evict")
		observability.DecWSActive()
		d.publishEviction(c, event.Type)
	}
	if emptied && d.onEmpty != nil {
		d.onEmpty(userID)
	}
}

// SendToMany delivers to each recipient independently and sequentially. No
// atomicity or ordering is guaranteed across recipients; a failure for one
// never affects another.
func (d *Dispatcher) SendToMany(event Event, userIDs []int) {
	for _, id := range userIDs {
		d.SendToUser(event, id)
	}
}

func (d *Dispatcher) publishEviction(c *Conn, eventType string) {
	info := c.Info()
	_ = observability.PublishEvent(context.Background(), "ws_events.users", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_evict",
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       "ws_evict",
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      "write failed during " + eventType,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
