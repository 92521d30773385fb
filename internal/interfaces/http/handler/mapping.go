package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	channelapp "github.com/cmsdsdssd/cms-s-sub001/internal/application/channel"
)

// MappingHandler handles channel mapping management endpoints
type MappingHandler struct {
	BaseHandler
	mappingService *channelapp.MappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappingService *channelapp.MappingService) *MappingHandler {
	return &MappingHandler{mappingService: mappingService}
}

// RegisterRoutes registers mapping routes
func (h *MappingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	mappings := rg.Group("/mappings")
	{
		mappings.PUT("", h.Update)
		mappings.DELETE("/:id", h.Delete)
	}
}

// Update creates or replaces a mapping
// PUT /api/v1/mappings
func (h *MappingHandler) Update(c *gin.Context) {
	var req channelapp.UpdateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	mapping, err := h.mappingService.Update(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// Delete soft-deactivates a mapping
// DELETE /api/v1/mappings/:id
func (h *MappingHandler) Delete(c *gin.Context) {
	mappingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid mapping id")
		return
	}

	if err := h.mappingService.Delete(c.Request.Context(), mappingID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
