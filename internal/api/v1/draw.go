package v1

import (
	"net/http"

	"github.com/drawcard/drawcard/internal/api/dto"
	domainDraw "github.com/drawcard/drawcard/internal/domain/draw"
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
	"github.com/drawcard/drawcard/internal/service"
	"github.com/drawcard/drawcard/internal/types"
	"github.com/gin-gonic/gin"
)

type DrawHandler struct {
	service service.DrawService
	log     *logger.Logger
}

func NewDrawHandler(service service.DrawService, log *logger.Logger) *DrawHandler {
	return &DrawHandler{service: service, log: log}
}

func (h *DrawHandler) GetDraw(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Draw ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetDraw(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *DrawHandler) ListDraws(c *gin.Context) {
	var filter domainDraw.Filter
	if drawType := c.Query("type"); drawType != "" {
		filter.Types = []types.DrawType{types.DrawType(drawType)}
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []types.DrawStatus{types.DrawStatus(status)}
	}

	resp, err := h.service.GetDrawHistory(c.Request.Context(), &filter)
	if err != nil {
		h.log.Errorw("failed to list draws", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SelectWinner records the externally-audited winning entry number. The
// second and every later attempt is rejected; a winner is final.
func (h *DrawHandler) SelectWinner(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Draw ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.SelectWinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.SelectWinner(c.Request.Context(), id, &req)
	if err != nil {
		h.log.Errorw("failed to select winner", "draw_id", id, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportParticipants returns every participant with entry counts, for the
// external draw audit.
func (h *DrawHandler) ExportParticipants(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Draw ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ExportParticipants(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *DrawHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Draw ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	var req struct {
		Status types.DrawStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.log.Errorw("failed to update draw status", "draw_id", id, "status", req.Status, "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
