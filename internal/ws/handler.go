package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"dm-messenger/backend/pkg/jwt"
	"dm-messenger/backend/pkg/logger"
	"dm-messenger/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// AllowOrigins restricts handshake origins to the given list. The default
// accepts any origin; "*" anywhere in the list keeps that behavior. Call
// before the first connection is served.
func AllowOrigins(origins []string) {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return
		}
		allowed[strings.ToLower(o)] = struct{}{}
	}
	if len(allowed) == 0 {
		return
	}
	upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}

// TokenVerifier validates the credential presented at connection time and
// yields the trusted identity behind it.
type TokenVerifier interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Gateway is the realtime entry point: it authenticates the handshake,
// upgrades the connection, and routes decoded events to the presence
// coordinator and the relay.
type Gateway struct {
	hub      *Hub
	presence *Presence
	relay    *Relay
	verifier TokenVerifier
	log      *logger.Logger
}

// NewGateway wires the socket gateway together.
func NewGateway(hub *Hub, presence *Presence, relay *Relay, verifier TokenVerifier, log *logger.Logger) *Gateway {
	return &Gateway{
		hub:      hub,
		presence: presence,
		relay:    relay,
		verifier: verifier,
		log:      log,
	}
}

// ServeWS handles GET /ws. The credential comes from the `token` query
// parameter or the Authorization header; any verification failure refuses
// the handshake before the upgrade.
func (g *Gateway) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
	}
	token = strings.TrimPrefix(token, "Bearer ")
	if token == "" {
		g.log.Warn("websocket handshake without credential", "remote", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication error: No token provided"})
		return
	}

	claims, err := g.verifier.ValidateToken(token)
	if err != nil {
		g.log.Warn("websocket handshake with invalid credential", "remote", c.ClientIP(), "error", err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication error: Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.Error("websocket upgrade failed", "error", err.Error())
		return
	}

	client := newClient(g, conn, claims.UserID, claims.UserName)
	g.presence.HandleConnect(client)
	metrics.ActiveConnections.Inc()
	g.log.Info("websocket connected", "user_id", client.UserID, "user_name", client.UserName)

	go client.writePump()
	go client.readPump()
}

// disconnect runs once per connection when its read pump exits, whether
// the peer closed cleanly or the ping deadline dropped it.
func (g *Gateway) disconnect(c *Client) {
	g.presence.HandleDisconnect(c)
	metrics.ActiveConnections.Dec()
	g.log.Info("websocket disconnected", "user_id", c.UserID)
}

// dispatch decodes one frame and routes it. Malformed frames and unknown
// event types produce an error event on this connection only; the
// connection stays open.
func (g *Gateway) dispatch(c *Client, raw []byte) {
	ev, err := DecodeEvent(raw)
	if err != nil {
		g.relay.sendError(c, "Malformed event")
		return
	}
	metrics.EventsReceived.WithLabelValues(ev.Type).Inc()

	switch ev.Type {
	case EventJoinChat:
		var p JoinChatPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			g.relay.sendError(c, "Invalid joinChat payload")
			return
		}
		g.relay.HandleJoinChat(c, p)

	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			g.relay.sendError(c, "Invalid sendMessage payload")
			return
		}
		g.relay.HandleSendMessage(c, p)

	case EventTyping, EventStopTyping:
		var p TypingPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			g.relay.sendError(c, "Invalid typing payload")
			return
		}
		g.relay.HandleTyping(c, ev.Type, p)

	default:
		g.log.Warn("unknown event type", "type", ev.Type, "user_id", c.UserID)
		g.relay.sendError(c, "Unknown event type: "+ev.Type)
	}
}
