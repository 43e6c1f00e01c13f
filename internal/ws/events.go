package ws

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types accepted from clients.
const (
	EventJoinChat    = "joinChat"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
)

// Event types emitted to clients.
const (
	EventUserStatus         = "userStatus"
	EventMessage            = "message"
	EventConversationUpdate = "conversationUpdate"
	EventError              = "error"
)

// Event is the envelope for every frame on the realtime channel. The
// payload stays raw until the type is known, so malformed frames are
// rejected at the boundary instead of failing mid-handler.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JoinChatPayload subscribes the connection to the pair room shared with
// the given user.
type JoinChatPayload struct {
	ReceiverID uint `json:"receiverId"`
}

// SendMessagePayload carries an outgoing direct message.
type SendMessagePayload struct {
	ReceiverID uint   `json:"receiverId"`
	Text       string `json:"text"`
}

// TypingPayload scopes a typing/stopTyping signal to a pair room.
type TypingPayload struct {
	ReceiverID uint `json:"receiverId"`
}

// UserStatusPayload announces a presence transition to every client.
type UserStatusPayload struct {
	UserID   uint `json:"userId"`
	IsOnline bool `json:"isOnline"`
}

// ConversationUpdatePayload refreshes a participant's conversation list.
// UserID is the counterparty from the recipient's point of view.
type ConversationUpdatePayload struct {
	UserID          uint      `json:"userId"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
}

// TypingNoticePayload identifies who is typing in a pair room.
type TypingNoticePayload struct {
	UserID uint `json:"userId"`
}

// ErrorPayload is sent to the originating connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}

// EncodeEvent marshals an event envelope for the wire.
func EncodeEvent(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return json.Marshal(Event{Type: eventType, Payload: raw})
}

// DecodeEvent parses an incoming frame into its envelope. The payload is
// validated later, once the event type selects a concrete struct.
func DecodeEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("malformed event: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("event type is required")
	}
	return ev, nil
}
