package api

import (
	"net/http"

	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/internal/service"

	"github.com/gin-gonic/gin"

	apperrors "chatbot-api/backend/pkg/errors"
)

// UserController handles profile reads and updates
type UserController struct {
	users *service.UserService
}

func NewUserController(users *service.UserService) *UserController {
	return &UserController{users: users}
}

func (ctrl *UserController) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	group := router.Group("/users")
	group.Use(auth)
	{
		group.GET("/profile", ctrl.Profile)
		group.GET("/:id", ctrl.Get)
		group.PATCH("/:id", ctrl.Update)
	}
}

// Profile returns the caller's own profile, creating it on first sight
func (ctrl *UserController) Profile(c *gin.Context) {
	user, err := ctrl.users.GetOrCreateUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"email": c.GetString("userEmail"),
	})
}

func (ctrl *UserController) Get(c *gin.Context) {
	user, err := ctrl.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ctrl *UserController) Update(c *gin.Context) {
	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "Malformed request body"))
		c.Abort()
		return
	}

	user, err := ctrl.users.UpdateUser(c.Request.Context(), c.Param("id"), currentUserID(c), req)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
