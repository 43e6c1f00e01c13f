package models

import (
	"time"
)

// Conversation caches the most recent message for one unordered pair of
// users. The pair is stored in whatever direction the first message was
// sent; readers must check both orderings. The composite unique index
// guarantees at most one row per ordered pair.
type Conversation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	User1ID         uint      `gorm:"uniqueIndex:idx_conversation_pair" json:"user1_id"`
	User2ID         uint      `gorm:"uniqueIndex:idx_conversation_pair" json:"user2_id"`
	LastMessage     string    `gorm:"type:text" json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Involves reports whether the given user is one of the two participants.
func (c *Conversation) Involves(userID uint) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Counterparty returns the other participant's id. Callers must ensure
// userID is a participant.
func (c *Conversation) Counterparty(userID uint) uint {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}
