package v1

import (
	"net/http"

	"github.com/drawcard/drawcard/internal/api/dto"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/service"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service service.SubscriptionChangeService
	log     *logger.Logger
}

func NewSubscriptionHandler(service service.SubscriptionChangeService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, log: log}
}

// Upgrade charges the prorated difference immediately and applies the new
// package's benefits from this moment.
func (h *SubscriptionHandler) Upgrade(c *gin.Context) {
	accountID := c.Param("id")
	if accountID == "" {
		c.Error(ierr.NewError("account id is required").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.ChangeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Upgrade(c.Request.Context(), accountID, &req)
	if err != nil {
		h.log.Errorw("subscription upgrade failed", "account_id", accountID, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Downgrade schedules the cheaper package for the next billing date while
// preserving the current benefits until then.
func (h *SubscriptionHandler) Downgrade(c *gin.Context) {
	accountID := c.Param("id")
	if accountID == "" {
		c.Error(ierr.NewError("account id is required").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.ChangeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.Downgrade(c.Request.Context(), accountID, &req)
	if err != nil {
		h.log.Errorw("subscription downgrade failed", "account_id", accountID, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
