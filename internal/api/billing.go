package api

import (
	"net/http"

	"chatbot-api/backend/internal/service"

	"github.com/gin-gonic/gin"

	apperrors "chatbot-api/backend/pkg/errors"
)

// BillingController handles plan subscription purchases
type BillingController struct {
	billing *service.BillingService
}

func NewBillingController(billing *service.BillingService) *BillingController {
	return &BillingController{billing: billing}
}

func (ctrl *BillingController) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.POST("/subscribe", auth, ctrl.Subscribe)
}

// SubscribeRequest is the body for purchasing a plan
type SubscribeRequest struct {
	PlanID uint `json:"plan_id" binding:"required"`
}

func (ctrl *BillingController) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", "plan_id is required"))
		c.Abort()
		return
	}

	result, err := ctrl.billing.Subscribe(currentUserID(c), req.PlanID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
