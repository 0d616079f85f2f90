package api

import (
	"net/http"
	"strconv"

	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/internal/service"

	"github.com/gin-gonic/gin"

	apperrors "chatbot-api/backend/pkg/errors"
)

// ConversationController handles conversation CRUD and search
type ConversationController struct {
	conversations *service.ConversationService
}

func NewConversationController(conversations *service.ConversationService) *ConversationController {
	return &ConversationController{conversations: conversations}
}

func (ctrl *ConversationController) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	group := router.Group("/conversations")
	group.Use(auth)
	{
		group.GET("", ctrl.List)
		group.POST("", ctrl.Create)
		group.GET("/search", ctrl.Search)
		group.GET("/:id", ctrl.Get)
		group.PATCH("/:id", ctrl.Update)
		group.GET("/:id/messages", ctrl.Messages)
	}
}

func conversationIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_CONVERSATION_ID", "Conversation id must be a positive integer"))
		c.Abort()
		return 0, false
	}
	return uint(id), true
}

func (ctrl *ConversationController) List(c *gin.Context) {
	conversations, err := ctrl.conversations.List(currentUserID(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (ctrl *ConversationController) Create(c *gin.Context) {
	var req models.ConversationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Malformed request body"))
		c.Abort()
		return
	}

	conversation, err := ctrl.conversations.Create(currentUserID(c), req.Title, req.Model)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conversation)
}

func (ctrl *ConversationController) Get(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}

	conversation, err := ctrl.conversations.Authorize(id, currentUserID(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

func (ctrl *ConversationController) Update(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var req models.ConversationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Malformed request body"))
		c.Abort()
		return
	}

	conversation, err := ctrl.conversations.Update(id, currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversation)
}

func (ctrl *ConversationController) Messages(c *gin.Context) {
	id, ok := conversationIDParam(c)
	if !ok {
		return
	}

	messages, err := ctrl.conversations.Messages(id, currentUserID(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (ctrl *ConversationController) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.Error(apperrors.NewBadRequestError("MISSING_QUERY", "Query parameter q is required"))
		c.Abort()
		return
	}

	results, err := ctrl.conversations.Search(currentUserID(c), query)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
