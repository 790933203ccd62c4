package handler

import (
	"net/http"

	"busfleet/internal/middleware"
	"busfleet/internal/service"
	"busfleet/pkg/pagination"
	"busfleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type TransporterHandler struct {
	transporterService service.TransporterService
}

func NewTransporterHandler(transporterService service.TransporterService) *TransporterHandler {
	return &TransporterHandler{transporterService: transporterService}
}

func (h *TransporterHandler) RegisterRoutes(router *gin.RouterGroup) {
	transporters := router.Group("/api/transporters")
	{
		transporters.GET("", middleware.RequirePermission("fleet.read"), h.ListTransporters)
		transporters.GET("/:id", middleware.RequirePermission("fleet.read"), h.GetTransporter)
		transporters.POST("", middleware.RequirePermission("fleet.write"), h.CreateTransporter)
		transporters.PUT("/:id", middleware.RequirePermission("fleet.write"), h.UpdateTransporter)
		transporters.DELETE("/:id", middleware.RequirePermission("fleet.write"), h.DeleteTransporter)
	}
}

// ListTransporters handles GET /api/transporters
// @Summary      List transporters
// @Tags         transporters
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by transporter name"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/transporters [get]
func (h *TransporterHandler) ListTransporters(c *gin.Context) {
	p := pagination.Parse(c)

	transporters, total, err := h.transporterService.ListTransporters(c.Request.Context(), p.Page, p.Limit, p.Search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve transporters: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope(transporters, total, p)))
}

// GetTransporter handles GET /api/transporters/:id
// @Summary      Get transporter
// @Tags         transporters
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transporter ID"
// @Success      200  {object}  response.Response{data=model.Transporter}
// @Failure      404  {object}  response.Response
// @Router       /api/transporters/{id} [get]
func (h *TransporterHandler) GetTransporter(c *gin.Context) {
	transporter, err := h.transporterService.GetTransporter(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transporter))
}

// CreateTransporter handles POST /api/transporters
// @Summary      Create transporter
// @Tags         transporters
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTransporterRequest  true  "Create Transporter Payload"
// @Success      201      {object}  response.Response{data=model.Transporter}
// @Failure      400      {object}  response.Response
// @Router       /api/transporters [post]
func (h *TransporterHandler) CreateTransporter(c *gin.Context) {
	var req service.CreateTransporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transporter, err := h.transporterService.CreateTransporter(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, transporter))
}

// UpdateTransporter handles PUT /api/transporters/:id
// @Summary      Update transporter
// @Tags         transporters
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Transporter ID"
// @Param        payload  body      service.UpdateTransporterRequest  true  "Update Transporter Payload"
// @Success      200      {object}  response.Response{data=model.Transporter}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/transporters/{id} [put]
func (h *TransporterHandler) UpdateTransporter(c *gin.Context) {
	var req service.UpdateTransporterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	transporter, err := h.transporterService.UpdateTransporter(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transporter))
}

// DeleteTransporter handles DELETE /api/transporters/:id
// @Summary      Delete transporter
// @Tags         transporters
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Transporter ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/transporters/{id} [delete]
func (h *TransporterHandler) DeleteTransporter(c *gin.Context) {
	if err := h.transporterService.DeleteTransporter(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Transporter deleted"))
}
