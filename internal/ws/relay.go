package ws

import (
	"errors"
	"time"

	"dm-messenger/backend/internal/models"
	"dm-messenger/backend/internal/service"
	"dm-messenger/backend/pkg/logger"
	"dm-messenger/backend/pkg/metrics"
)

// MessageStore appends to the message log.
type MessageStore interface {
	SaveMessage(senderID, receiverID uint, text string, at time.Time) (*models.Message, error)
}

// ConversationStore reads and writes the per-pair summary row. FindByPair
// must check both orderings of the pair and return (nil, nil) when no row
// exists yet.
type ConversationStore interface {
	FindByPair(a, b uint) (*models.Conversation, error)
	Save(conv *models.Conversation) error
}

// Relay validates and persists incoming messages, maintains the
// conversation summary, and fans the results out to the pair room and
// both personal channels. Typing signals pass through without touching
// storage.
type Relay struct {
	hub           *Hub
	users         UserStore
	messages      MessageStore
	conversations ConversationStore
	locks         *pairLocks
	log           *logger.Logger
	now           func() time.Time
}

// NewRelay creates a message relay over the given stores.
func NewRelay(hub *Hub, users UserStore, messages MessageStore, conversations ConversationStore, log *logger.Logger) *Relay {
	return &Relay{
		hub:           hub,
		users:         users,
		messages:      messages,
		conversations: conversations,
		locks:         newPairLocks(),
		log:           log,
		now:           time.Now,
	}
}

// HandleJoinChat subscribes the connection to the room it shares with the
// given user. Joining the same room twice is a no-op.
func (r *Relay) HandleJoinChat(c *Client, p JoinChatPayload) {
	if p.ReceiverID == 0 {
		r.sendError(c, "receiverId is required")
		return
	}
	r.hub.JoinRoom(c, RoomKey(c.UserID, p.ReceiverID))
}

// HandleSendMessage persists a message, upserts the conversation summary
// for the pair, and emits the results. Any failure is logged and surfaced
// to the sender only; other connections are never affected.
func (r *Relay) HandleSendMessage(c *Client, p SendMessagePayload) {
	if p.ReceiverID == 0 || p.Text == "" {
		r.sendError(c, "receiverId and text are required")
		return
	}

	if _, err := r.users.GetUserByID(c.UserID); err != nil {
		r.userLookupFailed(c, c.UserID, err)
		return
	}
	receiver, err := r.users.GetUserByID(p.ReceiverID)
	if err != nil {
		r.userLookupFailed(c, p.ReceiverID, err)
		return
	}

	msg, err := r.messages.SaveMessage(c.UserID, receiver.ID, p.Text, r.now())
	if err != nil {
		r.log.Error("saving message failed", "sender_id", c.UserID, "receiver_id", receiver.ID, "error", err.Error())
		r.sendError(c, "Failed to send message")
		return
	}

	if err := r.upsertConversation(c.UserID, receiver.ID, msg); err != nil {
		r.log.Error("updating conversation failed", "sender_id", c.UserID, "receiver_id", receiver.ID, "error", err.Error())
		r.sendError(c, "Failed to send message")
		return
	}
	metrics.MessagesRelayed.Inc()

	room := RoomKey(c.UserID, receiver.ID)
	if data, err := EncodeEvent(EventMessage, msg.ToResponse()); err == nil {
		r.hub.EmitToRoom(room, data, nil)
	} else {
		r.log.Error("encoding message event failed", "error", err.Error())
	}

	// Both participants refresh their conversation lists, whether or not
	// they have joined this room.
	r.emitConversationUpdate(receiver.ID, c.UserID, msg)
	r.emitConversationUpdate(c.UserID, receiver.ID, msg)
}

// upsertConversation looks up the pair's summary row and inserts or
// rewrites it. The lookup and write are serialized per pair so two
// messages racing on a fresh pair still converge to a single row.
func (r *Relay) upsertConversation(senderID, receiverID uint, msg *models.Message) error {
	unlock := r.locks.Lock(RoomKey(senderID, receiverID))
	defer unlock()

	conv, err := r.conversations.FindByPair(senderID, receiverID)
	if err != nil {
		return err
	}
	if conv == nil {
		conv = &models.Conversation{
			User1ID:         senderID,
			User2ID:         receiverID,
			LastMessage:     msg.Text,
			LastMessageTime: msg.Timestamp,
		}
	} else {
		conv.LastMessage = msg.Text
		conv.LastMessageTime = msg.Timestamp
	}
	return r.conversations.Save(conv)
}

func (r *Relay) emitConversationUpdate(toUserID, counterpartyID uint, msg *models.Message) {
	data, err := EncodeEvent(EventConversationUpdate, ConversationUpdatePayload{
		UserID:          counterpartyID,
		LastMessage:     msg.Text,
		LastMessageTime: msg.Timestamp,
	})
	if err != nil {
		r.log.Error("encoding conversationUpdate event failed", "error", err.Error())
		return
	}
	r.hub.EmitToUser(toUserID, data)
}

// HandleTyping relays a typing or stopTyping signal to every other
// connection in the pair room. Nothing is persisted and delivery is best
// effort.
func (r *Relay) HandleTyping(c *Client, eventType string, p TypingPayload) {
	if p.ReceiverID == 0 {
		r.sendError(c, "receiverId is required")
		return
	}
	data, err := EncodeEvent(eventType, TypingNoticePayload{UserID: c.UserID})
	if err != nil {
		r.log.Error("encoding typing event failed", "error", err.Error())
		return
	}
	r.hub.EmitToRoom(RoomKey(c.UserID, p.ReceiverID), data, c)
}

func (r *Relay) userLookupFailed(c *Client, userID uint, err error) {
	if errors.Is(err, service.ErrUserNotFound) {
		r.sendError(c, "User not found")
		return
	}
	r.log.Error("loading user failed", "user_id", userID, "error", err.Error())
	r.sendError(c, "Failed to send message")
}

func (r *Relay) sendError(c *Client, message string) {
	data, err := EncodeEvent(EventError, ErrorPayload{Message: message})
	if err != nil {
		r.log.Error("encoding error event failed", "error", err.Error())
		return
	}
	r.hub.EmitToClient(c, data)
}
