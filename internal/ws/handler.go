package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/observability"
)

// closeCodeAuthFailure tells the client its credential was rejected, as
// opposed to an ordinary transport close.
const closeCodeAuthFailure = 4003

// TypingSink consumes client-originated typing events. Implemented by the
// chat service, which resolves membership and the typer's display name.
type TypingSink interface {
	Typing(ctx context.Context, chatID, userID int, isTyping bool) error
}

// Handler owns the duplex session loop per client: it authenticates the
// handshake, registers the connection, routes inbound events and guarantees
// a single deregistration on any close path.
type Handler struct {
	hub       *Hub
	validator auth.TokenValidator
	typing    TypingSink
	log       *zap.SugaredLogger
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, validator auth.TokenValidator, typing TypingSink, log *zap.SugaredLogger) *Handler {
	return &Handler{hub: hub, validator: validator, typing: typing, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inboundEvent is the closed set of client-originated messages. Unknown
// types and malformed payloads are dropped without a response.
type inboundEvent struct {
	Type     string `json:"type"`
	ChatID   int    `json:"chat_id"`
	IsTyping bool   `json:"is_typing"`
	Status   string `json:"status"`
}

// Handle upgrades the connection. The duplex handshake cannot carry
// arbitrary headers from browsers, so the credential arrives as a query
// parameter; an Authorization header is honored when present.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.Query("token")
	if token == "" {
		if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 {
			token = parts[1]
		}
	}
	userID, authErr := h.validator.Validate(ctx, token)

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	if authErr != nil {
		h.log.Infow("websocket auth failed", "ip", observability.IPFromRequest(c.Request), "error", authErr)
		NewConn(sock, ConnInfo{}).CloseWithCode(closeCodeAuthFailure, "authentication failed")
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	conn := NewConn(sock, info)

	h.hub.Register(userID, conn)
	h.log.Infow("websocket connected", "user_id", userID, "conn_id", info.ConnID)
	observability.IncWSEvent("ws_connect")
	h.publishLifecycle(ctx, "ws_connect", info, "")

	// The roster goes straight to the new connection, not through the
	// dispatcher, so a concurrent eviction cannot race the welcome.
	if err := conn.Send(Event{Type: EventOnlineList, Data: h.hub.OnlineUsers()}); err != nil {
		h.log.Warnw("online list delivery failed", "user_id", userID, "conn_id", info.ConnID, "error", err)
	}

	// The request context ends with the handshake; the session outlives it.
	go h.readLoop(context.WithoutCancel(ctx), userID, conn, sock)
}

// readLoop consumes inbound frames until the transport ends, then
// deregisters. Both the error path and the clean close converge here, so
// deregistration happens exactly once for this connection's lifecycle.
func (h *Handler) readLoop(ctx context.Context, userID int, conn *Conn, sock *websocket.Conn) {
	info := conn.Info()
	var closeReason string
	defer func() {
		h.hub.Deregister(userID, conn)
		_ = conn.Close()
		h.log.Infow("websocket disconnected", "user_id", userID, "conn_id", info.ConnID, "reason", closeReason)
		observability.IncWSEvent("ws_disconnect")
		h.publishLifecycle(ctx, "ws_disconnect", info, closeReason)
	}()

	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				h.publishLifecycle(ctx, "ws_error", info, closeReason)
			}
			return
		}

		var in inboundEvent
		if err := json.Unmarshal(data, &in); err != nil {
			// Untrusted clients send garbage; not an error.
			continue
		}
		switch in.Type {
		case inboundTyping:
			if in.ChatID == 0 {
				continue
			}
			if err := h.typing.Typing(ctx, in.ChatID, userID, in.IsTyping); err != nil {
				h.log.Debugw("typing event dropped", "chat_id", in.ChatID, "user_id", userID, "error", err)
			}
		case inboundStatusUpdate:
			h.hub.SetExplicitStatus(userID, conn, Status(in.Status))
		default:
			// Unknown type, silently discarded.
		}
	}
}

func (h *Handler) publishLifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	_ = observability.PublishEvent(ctx, "ws_events.users", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
