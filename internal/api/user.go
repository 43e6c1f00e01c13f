package api

import (
	"context"
	"net/http"
	"time"

	"dm-messenger/backend/internal/presence"
	"dm-messenger/backend/internal/service"
	"dm-messenger/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// UserController serves the contact list with presence and last-message
// previews.
type UserController struct {
	users         *service.UserService
	presenceCache *presence.Cache // may be nil
	logger        *logger.Logger
}

// NewUserController creates a new UserController
func NewUserController(users *service.UserService, presenceCache *presence.Cache, logger *logger.Logger) *UserController {
	return &UserController{
		users:         users,
		presenceCache: presenceCache,
		logger:        logger,
	}
}

// List returns all other users with their online flag and conversation
// preview. When the presence cache is configured its snapshot overrides
// the database flag, since the cache is refreshed on every transition.
func (ctl *UserController) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	previews, err := ctl.users.ListWithPreviews(userID)
	if err != nil {
		ctl.logger.Error("Error fetching users", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error"})
		return
	}

	if ctl.presenceCache != nil {
		ids := make([]uint, len(previews))
		for i := range previews {
			ids[i] = previews[i].ID
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if online, err := ctl.presenceCache.Snapshot(ctx, ids); err == nil {
			for i := range previews {
				previews[i].IsOnline = online[previews[i].ID]
			}
		} else {
			ctl.logger.Warn("presence snapshot failed, using stored flags", "error", err.Error())
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"users":  previews,
	})
}
