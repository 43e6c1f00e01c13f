package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"dm-messenger/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AIController proxies message-intelligence requests to an external
// model endpoint. The backend adds no logic of its own here beyond
// validation and error shaping.
type AIController struct {
	endpoint string
	client   *http.Client
	logger   *logger.Logger
}

// NewAIController creates the proxy. endpoint may be empty, in which
// case requests are rejected with 503.
func NewAIController(endpoint string, logger *logger.Logger) *AIController {
	return &AIController{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// Chat forwards {message} to the model endpoint and returns its reply.
func (ctl *AIController) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No message provided"})
		return
	}

	if ctl.endpoint == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI service is not configured"})
		return
	}

	body, _ := json.Marshal(gin.H{"message": req.Message})
	proxyReq, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, ctl.endpoint, bytes.NewReader(body))
	if err != nil {
		ctl.logger.Error("building AI request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI error"})
		return
	}
	proxyReq.Header.Set("Content-Type", "application/json")

	resp, err := ctl.client.Do(proxyReq)
	if err != nil {
		ctl.logger.Error("AI request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI error"})
		return
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || resp.StatusCode != http.StatusOK {
		ctl.logger.Error("AI response failed", "status", resp.StatusCode)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI error"})
		return
	}

	var reply struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(payload, &reply); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": reply.Response})
}
