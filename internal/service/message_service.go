package service

import (
	"errors"
	"time"

	"dm-messenger/backend/internal/models"

	"gorm.io/gorm"
)

// MessageService handles the message log and conversation summaries.
type MessageService struct {
	db *gorm.DB
}

// NewMessageService creates a new message service
func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// SaveMessage appends a message to the log.
func (s *MessageService) SaveMessage(senderID, receiverID uint, text string, at time.Time) (*models.Message, error) {
	msg := models.Message{
		Text:       text,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Timestamp:  at,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// MessagesBetween returns the full history between two users in both
// directions, oldest first.
func (s *MessageService) MessagesBetween(a, b uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindByPair looks up the conversation row for an unordered pair,
// checking both orderings. Returns (nil, nil) when no row exists.
func (s *MessageService) FindByPair(a, b uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// Save inserts or updates a conversation summary row.
func (s *MessageService) Save(conv *models.Conversation) error {
	return s.db.Save(conv).Error
}
