package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ordertrack/backend/internal/application/ordersync"
	"github.com/ordertrack/backend/internal/domain/integration"
	"github.com/ordertrack/backend/internal/infrastructure/logger"
	"github.com/ordertrack/backend/internal/infrastructure/scheduler"
	"github.com/ordertrack/backend/internal/interfaces/http/dto"
)

const defaultHistoryLimit = 20

// SyncService is the marketplace ingestion API the handler drives
type SyncService interface {
	Sync(ctx context.Context, platform integration.PlatformCode, trigger integration.SyncTrigger) (*integration.SyncResult, error)
	HandleTrendyolWebhook(ctx context.Context, body []byte) (*ordersync.WebhookReceipt, error)
	History(limit int) []integration.SyncResult
}

var _ SyncService = (*ordersync.Service)(nil)

// JobStatsProvider exposes background job state
type JobStatsProvider interface {
	Stats() scheduler.Stats
}

// SyncHandler handles webhooks, manual sync triggers and run history
type SyncHandler struct {
	BaseHandler
	service SyncService
	jobs    JobStatsProvider
}

// NewSyncHandler creates a new SyncHandler. jobs may be nil when the
// scheduler is disabled.
func NewSyncHandler(service SyncService, jobs JobStatsProvider) *SyncHandler {
	return &SyncHandler{service: service, jobs: jobs}
}

// WebhookResponse acknowledges a marketplace notification
type WebhookResponse struct {
	Accepted  bool   `json:"accepted"`
	Duplicate bool   `json:"duplicate"`
	Ignored   bool   `json:"ignored"`
	OrderNo   string `json:"order_no,omitempty"`
}

// TrendyolWebhook acknowledges a Trendyol order notification with 202 and
// leaves the ingestion to the background. Event types the service does not
// handle are acknowledged with 200 so the marketplace stops redelivering.
func (h *SyncHandler) TrendyolWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Webhook gövdesi okunamadı")
		return
	}

	receipt, err := h.service.HandleTrendyolWebhook(c.Request.Context(), body)
	if errors.Is(err, integration.ErrWebhookIgnored) {
		logger.FromContext(c.Request.Context()).Debug("Webhook event ignored", zap.Error(err))
		h.Success(c, WebhookResponse{Ignored: true})
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, WebhookResponse{
		Accepted:  !receipt.Duplicate,
		Duplicate: receipt.Duplicate,
		OrderNo:   receipt.OrderNo,
	})
}

// Trigger runs one sync for :platform and returns its result
func (h *SyncHandler) Trigger(c *gin.Context) {
	platform, err := integration.ParsePlatformCode(c.Param("platform"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.service.Sync(c.Request.Context(), platform, integration.SyncTriggerManual)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// History returns recent sync runs, newest first
func (h *SyncHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.BadRequest(c, "limit pozitif bir tam sayı olmalı")
			return
		}
		limit = n
	}
	h.Success(c, h.service.History(limit))
}

// Jobs returns the background scheduler state
func (h *SyncHandler) Jobs(c *gin.Context) {
	if h.jobs == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Zamanlayıcı devre dışı")
		return
	}
	h.Success(c, h.jobs.Stats())
}
