package ws

import (
	"context"
	"time"

	"dm-messenger/backend/internal/models"
	"dm-messenger/backend/pkg/logger"
	"dm-messenger/backend/pkg/metrics"
)

// UserStore is the slice of the persistence gateway the realtime core
// reads users from and writes presence through.
type UserStore interface {
	GetUserByID(id uint) (*models.User, error)
	SetOnline(id uint, online bool) error
}

// PresenceCache mirrors the online flag into a fast store for read paths
// outside the gateway. Best effort: the database row stays authoritative.
type PresenceCache interface {
	SetOnline(ctx context.Context, userID uint, online bool) error
}

// Presence owns the online flag. Nothing else writes it: connect and
// disconnect funnel through here, the flag is persisted first, and the
// userStatus broadcast goes to every connected client only when the
// write succeeded.
type Presence struct {
	hub   *Hub
	users UserStore
	cache PresenceCache // may be nil
	log   *logger.Logger
}

// NewPresence creates the presence coordinator and hooks it into the
// hub's eviction path so dropped connections settle presence too.
func NewPresence(hub *Hub, users UserStore, cache PresenceCache, log *logger.Logger) *Presence {
	p := &Presence{
		hub:   hub,
		users: users,
		cache: cache,
		log:   log,
	}
	hub.SetOnDrop(p.connectionDropped)
	return p
}

// HandleConnect binds the connection and transitions the identity to
// online if this is its first live connection. Additional devices for an
// identity that is already online do not re-broadcast.
func (p *Presence) HandleConnect(c *Client) {
	if first := p.hub.Bind(c); first {
		p.transition(c.UserID, true)
	}
}

// HandleDisconnect unbinds the connection and transitions the identity
// to offline once no live connections remain. Safe to call for a
// connection the hub already evicted.
func (p *Presence) HandleDisconnect(c *Client) {
	removed, last := p.hub.Unbind(c)
	if removed && last {
		p.transition(c.UserID, false)
	}
}

func (p *Presence) connectionDropped(c *Client, last bool) {
	if last {
		p.transition(c.UserID, false)
	}
}

// transition persists the new flag, mirrors it into the cache, and
// broadcasts the change. A failed persist suppresses the broadcast so
// clients never see a state that durable storage does not hold.
func (p *Presence) transition(userID uint, online bool) {
	if err := p.users.SetOnline(userID, online); err != nil {
		p.log.Error("presence write failed, suppressing broadcast",
			"user_id", userID,
			"online", online,
			"error", err.Error(),
		)
		return
	}
	metrics.PresenceTransitions.WithLabelValues(stateLabel(online)).Inc()

	if p.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := p.cache.SetOnline(ctx, userID, online); err != nil {
			p.log.Warn("presence cache update failed", "user_id", userID, "error", err.Error())
		}
		cancel()
	}

	data, err := EncodeEvent(EventUserStatus, UserStatusPayload{UserID: userID, IsOnline: online})
	if err != nil {
		p.log.Error("encoding userStatus event failed", "error", err.Error())
		return
	}
	p.hub.Broadcast(data)
	p.log.Info("presence changed", "user_id", userID, "online", online)
}

func stateLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}
