package v1

import (
	"net/http"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/service"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accounts service.AccountService
	schedule service.DiscountScheduleService
	log      *logger.Logger
}

func NewAccountHandler(accounts service.AccountService, schedule service.DiscountScheduleService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, schedule: schedule, log: log}
}

// GetState returns the account's full benefit state in one read.
func (h *AccountHandler) GetState(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("account id is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.accounts.CurrentState(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetDiscountSchedule returns the account's derived partner-discount
// schedule: the active period, if any, and the queued grants behind it.
func (h *AccountHandler) GetDiscountSchedule(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("account id is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.schedule.CurrentState(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("failed to derive discount schedule", "account_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
