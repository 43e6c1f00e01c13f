package models

import (
	"time"
)

// Message is a single direct message. Rows are append-only: created by the
// relay, never updated or deleted.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Text       string    `gorm:"type:text" json:"text"`
	SenderID   uint      `gorm:"index" json:"sender_id"`
	ReceiverID uint      `gorm:"index" json:"receiver_id"`
	Timestamp  time.Time `json:"timestamp"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessageResponse is the wire shape used by the history endpoint and the
// realtime `message` event.
type MessageResponse struct {
	ID        uint      `json:"id"`
	SenderID  uint      `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ToResponse converts a Message to its wire shape.
func (m *Message) ToResponse() MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
}
