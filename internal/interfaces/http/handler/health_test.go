package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler()
	h.startTime = fixedNow
	h.now = func() time.Time { return fixedNow.Add(90 * time.Second) }

	engine := gin.New()
	engine.GET("/api/health", h.Health)

	w := doRequest(engine, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	got := decode[HealthResponse](t, w).Data
	assert.Equal(t, "ok", got.Status)
	assert.NotEmpty(t, got.Message)
	assert.Equal(t, "2024-05-10T12:01:30.000Z", got.Timestamp)
	assert.InDelta(t, 90.0, got.Uptime, 0.001)
}
