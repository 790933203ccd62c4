package handler

import (
	"net/http"

	"busfleet/internal/middleware"
	"busfleet/internal/service"
	"busfleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService service.StatsService
}

func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/stats/fleet", middleware.RequirePermission("stats.read"), h.GetFleetStats)
}

// GetFleetStats handles GET /api/stats/fleet
// @Summary      Fleet statistics
// @Description  Aggregated counts across diagram models, transporters, drivers and active seats
// @Tags         stats
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.FleetStatsResponse}
// @Failure      500  {object}  response.Response
// @Router       /api/stats/fleet [get]
func (h *StatsHandler) GetFleetStats(c *gin.Context) {
	stats, err := h.statsService.GetFleetStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to compute statistics: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
