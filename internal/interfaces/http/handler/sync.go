package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	channelapp "github.com/cmsdsdssd/cms-s-sub001/internal/application/channel"
	"github.com/cmsdsdssd/cms-s-sub001/internal/domain/channel"
)

// SyncHandler handles push-and-verify API endpoints
type SyncHandler struct {
	BaseHandler
	pushService *channelapp.PushService
	jobs        channel.SyncJobRepository
	dashboards  channel.DashboardRepository
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(pushService *channelapp.PushService, jobs channel.SyncJobRepository, dashboards channel.DashboardRepository) *SyncHandler {
	return &SyncHandler{
		pushService: pushService,
		jobs:        jobs,
		dashboards:  dashboards,
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/push", h.Push)
		sync.GET("/jobs/:id", h.GetJob)
		sync.GET("/dashboard", h.Dashboard)
	}
}

// PushRequest is the request body for one push run
type PushRequest struct {
	ChannelID        string   `json:"channel_id" binding:"required,uuid"`
	ProductNos       []string `json:"product_nos"`
	RunType          string   `json:"run_type" binding:"omitempty,oneof=MANUAL SCHEDULED RETRY"`
	DryRun           bool     `json:"dry_run"`
	SyncOptionLabels bool     `json:"sync_option_labels"`
}

// Push writes computed target prices to the channel and verifies them
// POST /api/v1/sync/push
func (h *SyncHandler) Push(c *gin.Context) {
	var req PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		h.BadRequest(c, "invalid channel_id")
		return
	}

	runType := channel.RunType(req.RunType)
	if req.RunType == "" {
		runType = channel.RunManual
	}

	result, err := h.pushService.Push(c.Request.Context(), channelapp.PushRequest{
		ChannelID:        channelID,
		ProductNos:       req.ProductNos,
		RunType:          runType,
		DryRun:           req.DryRun,
		SyncOptionLabels: req.SyncOptionLabels,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// JobResponse bundles one job header with its audit rows
type JobResponse struct {
	Job   *channel.PriceSyncJob      `json:"job"`
	Items []channel.PriceSyncJobItem `json:"items"`
}

// GetJob returns one push job and its per-candidate audit rows
// GET /api/v1/sync/jobs/:id
func (h *SyncHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid job id")
		return
	}

	job, err := h.jobs.FindJob(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	items, err := h.jobs.FindItems(c.Request.Context(), jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, JobResponse{Job: job, Items: items})
}

// Dashboard lists push candidates with their latest computed targets
// GET /api/v1/sync/dashboard?channel_id=...&product_no=...
func (h *SyncHandler) Dashboard(c *gin.Context) {
	channelID, err := uuid.Parse(c.Query("channel_id"))
	if err != nil {
		h.BadRequest(c, "invalid channel_id")
		return
	}

	var productNos []string
	if productNo := c.Query("product_no"); productNo != "" {
		productNos = []string{productNo}
	}

	rows, err := h.dashboards.FindCandidates(c.Request.Context(), channelID, productNos)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}
