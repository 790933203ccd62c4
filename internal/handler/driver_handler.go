package handler

import (
	"net/http"

	"busfleet/internal/middleware"
	"busfleet/internal/service"
	"busfleet/pkg/pagination"
	"busfleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type DriverHandler struct {
	driverService service.DriverService
}

func NewDriverHandler(driverService service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

func (h *DriverHandler) RegisterRoutes(router *gin.RouterGroup) {
	drivers := router.Group("/api/drivers")
	{
		drivers.GET("", middleware.RequirePermission("fleet.read"), h.ListDrivers)
		drivers.GET("/:id", middleware.RequirePermission("fleet.read"), h.GetDriver)
		drivers.POST("", middleware.RequirePermission("fleet.write"), h.CreateDriver)
		drivers.PUT("/:id", middleware.RequirePermission("fleet.write"), h.UpdateDriver)
		drivers.DELETE("/:id", middleware.RequirePermission("fleet.write"), h.DeleteDriver)
	}
}

// ListDrivers handles GET /api/drivers
// @Summary      List drivers
// @Tags         drivers
// @Security     BearerAuth
// @Produce      json
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Param        transporter_id  query     string  false  "Filter by transporter"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/drivers [get]
func (h *DriverHandler) ListDrivers(c *gin.Context) {
	p := pagination.Parse(c)

	drivers, total, err := h.driverService.ListDrivers(c.Request.Context(), p.Page, p.Limit, c.Query("transporter_id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope(drivers, total, p)))
}

// GetDriver handles GET /api/drivers/:id
// @Summary      Get driver
// @Tags         drivers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Driver ID"
// @Success      200  {object}  response.Response{data=model.Driver}
// @Failure      404  {object}  response.Response
// @Router       /api/drivers/{id} [get]
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, driver))
}

// CreateDriver handles POST /api/drivers
// @Summary      Create driver
// @Tags         drivers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDriverRequest  true  "Create Driver Payload"
// @Success      201      {object}  response.Response{data=model.Driver}
// @Failure      400      {object}  response.Response
// @Router       /api/drivers [post]
func (h *DriverHandler) CreateDriver(c *gin.Context) {
	var req service.CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	driver, err := h.driverService.CreateDriver(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, driver))
}

// UpdateDriver handles PUT /api/drivers/:id
// @Summary      Update driver
// @Tags         drivers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Driver ID"
// @Param        payload  body      service.UpdateDriverRequest  true  "Update Driver Payload"
// @Success      200      {object}  response.Response{data=model.Driver}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/drivers/{id} [put]
func (h *DriverHandler) UpdateDriver(c *gin.Context) {
	var req service.UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	driver, err := h.driverService.UpdateDriver(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, driver))
}

// DeleteDriver handles DELETE /api/drivers/:id
// @Summary      Delete driver
// @Tags         drivers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Driver ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/drivers/{id} [delete]
func (h *DriverHandler) DeleteDriver(c *gin.Context) {
	if err := h.driverService.DeleteDriver(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Driver deleted"))
}
