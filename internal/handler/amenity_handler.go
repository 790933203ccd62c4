package handler

import (
	"net/http"

	"busfleet/internal/middleware"
	"busfleet/internal/service"
	"busfleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type AmenityHandler struct {
	amenityService service.AmenityService
}

func NewAmenityHandler(amenityService service.AmenityService) *AmenityHandler {
	return &AmenityHandler{amenityService: amenityService}
}

func (h *AmenityHandler) RegisterRoutes(router *gin.RouterGroup) {
	amenities := router.Group("/api/amenities")
	{
		amenities.GET("", middleware.RequirePermission("amenities.read"), h.ListAmenities)
		amenities.POST("", middleware.RequirePermission("amenities.write"), h.CreateAmenity)
		amenities.PUT("/:id", middleware.RequirePermission("amenities.write"), h.UpdateAmenity)
		amenities.DELETE("/:id", middleware.RequirePermission("amenities.write"), h.DeleteAmenity)
	}
}

// ListAmenities handles GET /api/amenities
// @Summary      List amenities
// @Description  Retrieves the full amenity catalog; seat payloads reference these by id
// @Tags         amenities
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Amenity}
// @Failure      500  {object}  response.Response
// @Router       /api/amenities [get]
func (h *AmenityHandler) ListAmenities(c *gin.Context) {
	amenities, err := h.amenityService.ListAmenities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve amenities: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, amenities))
}

// CreateAmenity handles POST /api/amenities
// @Summary      Create amenity
// @Tags         amenities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateAmenityRequest  true  "Create Amenity Payload"
// @Success      201      {object}  response.Response{data=model.Amenity}
// @Failure      400      {object}  response.Response
// @Router       /api/amenities [post]
func (h *AmenityHandler) CreateAmenity(c *gin.Context) {
	var req service.CreateAmenityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	amenity, err := h.amenityService.CreateAmenity(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, amenity))
}

// UpdateAmenity handles PUT /api/amenities/:id
// @Summary      Update amenity
// @Tags         amenities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Amenity ID"
// @Param        payload  body      service.UpdateAmenityRequest  true  "Update Amenity Payload"
// @Success      200      {object}  response.Response{data=model.Amenity}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/amenities/{id} [put]
func (h *AmenityHandler) UpdateAmenity(c *gin.Context) {
	var req service.UpdateAmenityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	amenity, err := h.amenityService.UpdateAmenity(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, amenity))
}

// DeleteAmenity handles DELETE /api/amenities/:id
// @Summary      Delete amenity
// @Tags         amenities
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Amenity ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/amenities/{id} [delete]
func (h *AmenityHandler) DeleteAmenity(c *gin.Context) {
	if err := h.amenityService.DeleteAmenity(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Amenity deleted"))
}
