package api

import (
	"errors"

	"chatbot-api/backend/internal/service"

	"github.com/gin-gonic/gin"

	apperrors "chatbot-api/backend/pkg/errors"
)

// currentUserID returns the authenticated user id set by the auth middleware
func currentUserID(c *gin.Context) string {
	return c.GetString("userId")
}

// abortWithServiceError translates service-level errors into the API error
// envelope and aborts the request.
func abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		c.Error(apperrors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation not found"))
	case errors.Is(err, service.ErrUserNotFound):
		c.Error(apperrors.NewNotFoundError("USER_NOT_FOUND", "User not found"))
	case errors.Is(err, service.ErrPlanNotFound):
		c.Error(apperrors.NewNotFoundError("PLAN_NOT_FOUND", "Plan not found"))
	case errors.Is(err, service.ErrInvalidModel):
		c.Error(apperrors.NewBadRequestError("INVALID_MODEL", "Model is not available"))
	case errors.Is(err, service.ErrNotProfileOwner):
		c.Error(apperrors.NewForbiddenError("FORBIDDEN", "Cannot modify another user's profile"))
	default:
		c.Error(apperrors.NewInternalServerError("INTERNAL_ERROR", "An unexpected error occurred"))
	}
	c.Abort()
}
