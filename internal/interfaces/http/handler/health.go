package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler answers liveness probes
type HealthHandler struct {
	BaseHandler
	startTime time.Time
	now       func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		now:       time.Now,
	}
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status    string  `json:"status"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// Health reports that the API is serving and for how long
func (h *HealthHandler) Health(c *gin.Context) {
	now := h.now()
	h.Success(c, HealthResponse{
		Status:    "ok",
		Message:   "Sipariş Takip API çalışıyor",
		Timestamp: now.UTC().Format(timestampLayout),
		Uptime:    now.Sub(h.startTime).Seconds(),
	})
}
