package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	apporder "github.com/ordertrack/backend/internal/application/order"
	"github.com/ordertrack/backend/internal/domain/order"
	"github.com/ordertrack/backend/internal/interfaces/http/dto"
)

// OrderService is the operator-facing order API the handler drives
type OrderService interface {
	Create(ctx context.Context, in apporder.CreateInput) (*order.OrderLine, error)
	List(ctx context.Context, status string) ([]*order.OrderLine, error)
	Get(ctx context.Context, id int64) (*order.OrderLine, error)
	SetStatus(ctx context.Context, id int64, status string) (*order.OrderLine, error)
	SetProductionStatus(ctx context.Context, id int64, status string) (*order.OrderLine, error)
	SetNote(ctx context.Context, id int64, note string) (*order.OrderLine, error)
	SetPhoto(ctx context.Context, id int64, url string) (*order.OrderLine, error)
	Delete(ctx context.Context, id int64) error
	PurgeOlderThan(ctx context.Context, days int, useCreatedAt bool) (int, error)
	PurgeAll(ctx context.Context) error
	Report(ctx context.Context, from, to string) ([]order.StatusSummary, error)
	RefreshPhotos(ctx context.Context, limit int) (*apporder.RefreshResult, error)
}

var _ OrderService = (*apporder.Service)(nil)

// OrderHandler handles the /siparisler endpoints
type OrderHandler struct {
	BaseHandler
	service OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// List returns all lines newest first, narrowed by ?durum= when given
func (h *OrderHandler) List(c *gin.Context) {
	lines, err := h.service.List(c.Request.Context(), c.Query("durum"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderLineResponses(lines))
}

// GetByID returns one line
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Geçersiz sipariş id")
		return
	}
	line, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderLineResponse(line))
}

// Create stores a manually entered line
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	line, err := h.service.Create(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toOrderLineResponse(line))
}

// UpdateStatus handles PATCH /:id/durum
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Geçersiz sipariş id")
		return
	}
	var req UpdateStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respondLine(c)(h.service.SetStatus(c.Request.Context(), id, req.Status))
}

// UpdateProductionStatus handles PATCH /:id/uretim-durum
func (h *OrderHandler) UpdateProductionStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Geçersiz sipariş id")
		return
	}
	var req UpdateProductionStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respondLine(c)(h.service.SetProductionStatus(c.Request.Context(), id, req.ProductionStatus))
}

// UpdateNote handles PATCH /:id/not
func (h *OrderHandler) UpdateNote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Geçersiz sipariş id")
		return
	}
	var req UpdateNoteRequest
	if !h.BindJSON(c, &req) {
		return
	}
	note := ""
	if req.Note != nil {
		note = *req.Note
	}
	h.respondLine(c)(h.service.SetNote(c.Request.Context(), id, note))
}

// UpdatePhoto handles PATCH /:id/fotograf
func (h *OrderHandler) UpdatePhoto(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Geçersiz sipariş id")
		return
	}
	var req UpdatePhotoRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respondLine(c)(h.service.SetPhoto(c.Request.Context(), id, req.URL))
}

// Delete removes one line
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.BadRequest(c, "Geçersiz sipariş id")
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageResponse{Message: "Sipariş silindi"})
}

// RefreshPhotos re-resolves photos for the newest lines that carry a product code
func (h *OrderHandler) RefreshPhotos(c *gin.Context) {
	result, err := h.service.RefreshPhotos(c.Request.Context(), apporder.DefaultRefreshLimit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRefreshPhotosResponse(result))
}

// PurgeOld handles DELETE /cleanup/old?days=
func (h *OrderHandler) PurgeOld(c *gin.Context) {
	days := apporder.DefaultPurgeDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "days bir tam sayı olmalı")
			return
		}
		days = n
	}
	deleted, err := h.service.PurgeOlderThan(c.Request.Context(), days, false)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PurgeResponse{Message: "Eski siparişler temizlendi", DeletedCount: deleted})
}

// PurgeAll handles DELETE /cleanup/all
func (h *OrderHandler) PurgeAll(c *gin.Context) {
	if err := h.service.PurgeAll(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.MessageResponse{Message: "Tüm siparişler silindi"})
}

// Report handles GET /raporlar?baslangic=&bitis=
func (h *OrderHandler) Report(c *gin.Context) {
	rows, err := h.service.Report(c.Request.Context(), c.Query("baslangic"), c.Query("bitis"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStatusSummaryResponses(rows))
}

// respondLine answers with the updated line or maps the error
func (h *OrderHandler) respondLine(c *gin.Context) func(*order.OrderLine, error) {
	return func(line *order.OrderLine, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, toOrderLineResponse(line))
	}
}
