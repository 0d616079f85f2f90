package api

import (
	"fmt"
	"net/http"

	"chatbot-api/backend/internal/service"
	"chatbot-api/backend/internal/ws"
	"chatbot-api/backend/pkg/config"

	"github.com/gin-gonic/gin"

	apperrors "chatbot-api/backend/pkg/errors"
)

// ChatController issues stream tickets and lists the available models
type ChatController struct {
	conversations *service.ConversationService
	registry      *ws.TicketRegistry
	relay         *ws.Relay
}

func NewChatController(conversations *service.ConversationService, registry *ws.TicketRegistry, relay *ws.Relay) *ChatController {
	return &ChatController{
		conversations: conversations,
		registry:      registry,
		relay:         relay,
	}
}

// RegisterRoutes registers the chat endpoints. The websocket route does its
// own authentication via ticket redemption, so it stays outside the JWT
// middleware.
func (ctrl *ChatController) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.POST("/chat", auth, ctrl.StartChat)
	router.GET("/models", ctrl.ListModels)
	router.GET("/ws/stream/:ticketID", ctrl.relay.ServeStream)
}

// ChatRequest is the body for starting a chat exchange
type ChatRequest struct {
	ConversationID uint   `json:"conversation_id" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

// StartChat persists the user message and returns a one-time websocket URL
// the client connects to for the assistant's reply.
func (ctrl *ChatController) StartChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "conversation_id and content are required"))
		c.Abort()
		return
	}

	userID := currentUserID(c)

	conversation, _, err := ctrl.conversations.SendMessage(req.ConversationID, userID, req.Content)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	ticketID := ctrl.registry.Issue(conversation.ID, conversation.Model, userID)

	scheme := "ws"
	if c.Request.TLS != nil {
		scheme = "wss"
	}
	wsURL := fmt.Sprintf("%s://%s/ws/stream/%s", scheme, c.Request.Host, ticketID)

	c.JSON(http.StatusOK, gin.H{
		"ws_url": wsURL,
	})
}

// ListModels returns the models clients may select
func (ctrl *ChatController) ListModels(c *gin.Context) {
	cfg := config.Get()
	c.JSON(http.StatusOK, gin.H{
		"models":        cfg.Chat.AvailableModels,
		"default_model": cfg.Chat.DefaultModel,
	})
}
