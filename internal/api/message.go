package api

import (
	"net/http"
	"strconv"

	"dm-messenger/backend/internal/models"
	"dm-messenger/backend/internal/service"
	"dm-messenger/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MessageController serves message history between the caller and a
// selected user.
type MessageController struct {
	messages *service.MessageService
	logger   *logger.Logger
}

// NewMessageController creates a new message controller
func NewMessageController(messages *service.MessageService, logger *logger.Logger) *MessageController {
	return &MessageController{
		messages: messages,
		logger:   logger,
	}
}

// History returns every message exchanged between the caller and
// selectedUserId, oldest first.
func (ctl *MessageController) History(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	selected := c.Query("selectedUserId")
	if selected == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "message": "selectedUserId is required"})
		return
	}
	selectedID, err := strconv.ParseUint(selected, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "message": "selectedUserId must be a number"})
		return
	}

	messages, err := ctl.messages.MessagesBetween(userID, uint(selectedID))
	if err != nil {
		ctl.logger.Error("Error fetching messages", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error"})
		return
	}

	responses := make([]models.MessageResponse, len(messages))
	for i := range messages {
		responses[i] = messages[i].ToResponse()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   responses,
	})
}
