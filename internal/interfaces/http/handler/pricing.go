package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pricingapp "github.com/cmsdsdssd/cms-s-sub001/internal/application/pricing"
)

// PricingHandler handles recompute and preview API endpoints
type PricingHandler struct {
	BaseHandler
	recomputeService *pricingapp.RecomputeService
	previewService   *pricingapp.PreviewService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(recomputeService *pricingapp.RecomputeService, previewService *pricingapp.PreviewService) *PricingHandler {
	return &PricingHandler{
		recomputeService: recomputeService,
		previewService:   previewService,
	}
}

// RegisterRoutes registers pricing routes
func (h *PricingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pricing := rg.Group("/pricing")
	{
		pricing.POST("/recompute", h.Recompute)
		pricing.POST("/preview", h.Preview)
	}
}

// RecomputeRequest is the request body for a batch recompute run
type RecomputeRequest struct {
	ChannelID     string   `json:"channel_id" binding:"required,uuid"`
	MasterItemIDs []string `json:"master_item_ids" binding:"omitempty,dive,uuid"`
	FactorSetID   string   `json:"factor_set_id" binding:"omitempty,uuid"`
}

// Recompute runs the batch pipeline for one channel
// POST /api/v1/pricing/recompute
func (h *PricingHandler) Recompute(c *gin.Context) {
	var req RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		h.BadRequest(c, "invalid channel_id")
		return
	}

	appReq := pricingapp.RecomputeRequest{ChannelID: channelID}
	for _, raw := range req.MasterItemIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "invalid master_item_ids entry: "+raw)
			return
		}
		appReq.MasterItemIDs = append(appReq.MasterItemIDs, id)
	}
	if req.FactorSetID != "" {
		id, err := uuid.Parse(req.FactorSetID)
		if err != nil {
			h.BadRequest(c, "invalid factor_set_id")
			return
		}
		appReq.FactorSetID = &id
	}

	result, err := h.recomputeService.Recompute(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PreviewRequest is the request body for a read-only rule set preview
type PreviewRequest struct {
	ChannelID   string `json:"channel_id" binding:"required,uuid"`
	RuleSetID   string `json:"rule_set_id" binding:"required,uuid"`
	ProductNo   string `json:"product_no"`
	SampleLimit int    `json:"sample_limit" binding:"omitempty,min=1,max=100"`
}

// Preview evaluates a rule set against current mappings without persisting
// POST /api/v1/pricing/preview
func (h *PricingHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		h.BadRequest(c, "invalid channel_id")
		return
	}
	ruleSetID, err := uuid.Parse(req.RuleSetID)
	if err != nil {
		h.BadRequest(c, "invalid rule_set_id")
		return
	}

	result, err := h.previewService.Preview(c.Request.Context(), pricingapp.PreviewRequest{
		ChannelID:   channelID,
		RuleSetID:   ruleSetID,
		ProductNo:   req.ProductNo,
		SampleLimit: req.SampleLimit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
