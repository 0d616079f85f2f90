package middleware

import (
	"strings"

	"chatbot-api/backend/pkg/errors"
	"chatbot-api/backend/pkg/jwt"
	"chatbot-api/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware verifies the bearer token and stores the caller's
// identity in the request context under "userId", "userEmail" and "claims".
func JWTAuthMiddleware(jwtService *jwt.Service, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.GetHeader("authorization") // Support lowercase header
		}
		if token == "" {
			c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authorization header is required"))
			c.Abort()
			return
		}
		token = strings.TrimPrefix(token, "Bearer ")

		user, err := jwtService.Verify(token)
		if err != nil {
			logger.Warn("Token verification failed",
				"path", c.Request.URL.Path,
				"error", err.Error(),
			)
			c.Error(errors.NewUnauthorizedError("INVALID_TOKEN", err.Error()))
			c.Abort()
			return
		}

		c.Set("userId", user.ID)
		c.Set("userEmail", user.Email)
		c.Set("claims", user.Claims)
		c.Next()
	}
}
