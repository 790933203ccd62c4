package handler

import (
	"context"
	"net/http"

	"busfleet/internal/middleware"
	"busfleet/internal/service"
	"busfleet/pkg/pagination"
	"busfleet/pkg/response"

	"github.com/gin-gonic/gin"
)

type DiagramHandler struct {
	diagramService service.DiagramService
	// dropCache clears the Redis response cache after a mutation so list and
	// detail reads never serve a full TTL of stale seat counts. Nil-safe.
	dropCache func(context.Context)
}

func NewDiagramHandler(diagramService service.DiagramService, dropCache func(context.Context)) *DiagramHandler {
	return &DiagramHandler{diagramService: diagramService, dropCache: dropCache}
}

// RegisterRoutes binds the endpoints. The cache middleware is applied to read
// routes only; pass middleware.ResponseCache's no-op form when caching is off.
func (h *DiagramHandler) RegisterRoutes(router *gin.RouterGroup, cache gin.HandlerFunc) {
	diagrams := router.Group("/api/diagrams")
	{
		diagrams.GET("", middleware.RequirePermission("diagrams.read"), cache, h.ListDiagrams)
		diagrams.GET("/:id", middleware.RequirePermission("diagrams.read"), cache, h.GetDiagram)

		diagrams.POST("", middleware.RequirePermission("diagrams.write"), h.CreateDiagram)
		diagrams.POST("/:id/regenerate", middleware.RequirePermission("diagrams.write"), h.RegenerateSpaces)
		diagrams.PUT("/:id/seat-configuration", middleware.RequirePermission("diagrams.write"), h.UpdateSeatConfiguration)
		diagrams.DELETE("/:id", middleware.RequirePermission("diagrams.write"), h.DeleteDiagram)
	}
}

func (h *DiagramHandler) invalidate(c *gin.Context) {
	if h.dropCache != nil {
		h.dropCache(c.Request.Context())
	}
}

// CreateDiagram handles POST /api/diagrams
// @Summary      Create diagram model
// @Description  Creates a seat-diagram model from a floor template and generates its full space grid
// @Tags         diagrams
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDiagramRequest  true  "Create Diagram Payload"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/diagrams [post]
func (h *DiagramHandler) CreateDiagram(c *gin.Context) {
	var req service.CreateDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	diagram, spacesCreated, err := h.diagramService.CreateDiagramModel(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	h.invalidate(c)

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]interface{}{
		"diagram":        diagram,
		"spaces_created": spacesCreated,
	}))
}

// ListDiagrams handles GET /api/diagrams
// @Summary      List diagram models
// @Tags         diagrams
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by diagram name"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/diagrams [get]
func (h *DiagramHandler) ListDiagrams(c *gin.Context) {
	p := pagination.Parse(c)

	diagrams, total, err := h.diagramService.ListDiagrams(c.Request.Context(), p.Page, p.Limit, p.Search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve diagrams: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope(diagrams, total, p)))
}

// GetDiagram handles GET /api/diagrams/:id
// @Summary      Get diagram model
// @Description  Retrieves a diagram model with its floor template and full space set
// @Tags         diagrams
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Diagram Model ID"
// @Success      200  {object}  response.Response{data=service.DiagramDetail}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/diagrams/{id} [get]
func (h *DiagramHandler) GetDiagram(c *gin.Context) {
	detail, err := h.diagramService.GetDiagram(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, detail))
}

// RegenerateSpaces handles POST /api/diagrams/:id/regenerate
// @Summary      Regenerate spaces
// @Description  Rebuilds the full space grid from the floor template, discarding per-seat customization
// @Tags         diagrams
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true   "Diagram Model ID"
// @Param        payload  body      service.RegenerateRequest   false  "Optional metadata/template updates"
// @Success      200      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/diagrams/{id}/regenerate [post]
func (h *DiagramHandler) RegenerateSpaces(c *gin.Context) {
	var req *service.RegenerateRequest
	if c.Request.ContentLength > 0 {
		req = &service.RegenerateRequest{}
		if err := c.ShouldBindJSON(req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}
	}

	diagram, generated, err := h.diagramService.RegenerateSpaces(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	h.invalidate(c)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"diagram":          diagram,
		"spaces_generated": generated,
	}))
}

// UpdateSeatConfiguration handles PUT /api/diagrams/:id/seat-configuration
// @Summary      Update seat configuration
// @Description  Reconciles the submitted space list against the stored set in one transaction: creates new spaces, updates changed ones, deactivates missing ones and recomputes the diagram's seat total
// @Tags         diagrams
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                                  true  "Diagram Model ID"
// @Param        payload  body      service.UpdateSeatConfigurationRequest  true  "Desired space configuration"
// @Success      200      {object}  response.Response{data=service.ReconcileResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/diagrams/{id}/seat-configuration [put]
func (h *DiagramHandler) UpdateSeatConfiguration(c *gin.Context) {
	var req service.UpdateSeatConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.diagramService.BatchUpdateSeatConfiguration(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}
	h.invalidate(c)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteDiagram handles DELETE /api/diagrams/:id
// @Summary      Delete diagram model
// @Description  Deletes a diagram model together with its floor template and spaces
// @Tags         diagrams
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Diagram Model ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/diagrams/{id} [delete]
func (h *DiagramHandler) DeleteDiagram(c *gin.Context) {
	if err := h.diagramService.DeleteDiagram(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(response.FromError(err))
		return
	}
	h.invalidate(c)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Diagram deleted"))
}
