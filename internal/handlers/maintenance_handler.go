package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

type MaintenanceHandler struct {
	BaseHandler
	sweeper services.AbandonmentSweeper
}

func NewMaintenanceHandler(sweeper services.AbandonmentSweeper, logger utils.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler: NewBaseHandler(logger),
		sweeper:     sweeper,
	}
}

// SweepResponse reports how many attempts were abandoned
type SweepResponse struct {
	Abandoned int64  `json:"abandoned"`
	Threshold string `json:"threshold"`
}

// SweepAbandoned marks stale started attempts as abandoned
// @Summary Sweep abandoned attempts
// @Tags maintenance
// @Produce json
// @Param threshold query string false "Staleness threshold, e.g. 2h"
// @Success 200 {object} SweepResponse
// @Failure 400 {object} ErrorResponse
// @Router /maintenance/sweep [post]
func (h *MaintenanceHandler) SweepAbandoned(c *gin.Context) {
	threshold, ok := parseDurationQuery(c, "threshold")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid threshold", nil, c.Query("threshold"))
		return
	}
	if threshold == 0 {
		threshold = services.DefaultAbandonAfter
	}

	count, err := h.sweeper.SweepAbandoned(c.Request.Context(), threshold)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SweepResponse{
		Abandoned: count,
		Threshold: threshold.String(),
	})
}
