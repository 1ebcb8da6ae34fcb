package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ordertrack/backend/internal/application/ordersync"
	"github.com/ordertrack/backend/internal/domain/integration"
	"github.com/ordertrack/backend/internal/infrastructure/scheduler"
	"github.com/ordertrack/backend/internal/interfaces/http/dto"
)

// MockSyncService is a mock implementation of SyncService
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Sync(ctx context.Context, platform integration.PlatformCode, trigger integration.SyncTrigger) (*integration.SyncResult, error) {
	args := m.Called(ctx, platform, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

func (m *MockSyncService) HandleTrendyolWebhook(ctx context.Context, body []byte) (*ordersync.WebhookReceipt, error) {
	args := m.Called(ctx, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ordersync.WebhookReceipt), args.Error(1)
}

func (m *MockSyncService) History(limit int) []integration.SyncResult {
	args := m.Called(limit)
	return args.Get(0).([]integration.SyncResult)
}

type fakeJobs struct{ stats scheduler.Stats }

func (f fakeJobs) Stats() scheduler.Stats { return f.stats }

func newSyncEngine(svc SyncService, jobs JobStatsProvider) *gin.Engine {
	h := NewSyncHandler(svc, jobs)
	engine := gin.New()
	api := engine.Group("/api")
	api.POST("/webhooks/trendyol", h.TrendyolWebhook)
	api.POST("/sync/:platform", h.Trigger)
	api.GET("/sync/history", h.History)
	api.GET("/sync/jobs", h.Jobs)
	return engine
}

// ---------------------------------------------------------------------------
// Webhook
// ---------------------------------------------------------------------------

func TestSyncHandler_TrendyolWebhook(t *testing.T) {
	const body = `{"orderNumber":"1001","status":"Created","lines":[]}`

	t.Run("accepted for background processing", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("HandleTrendyolWebhook", mock.Anything, []byte(body)).
			Return(&ordersync.WebhookReceipt{OrderNo: "1001"}, nil)

		w := doRequest(newSyncEngine(svc, nil), http.MethodPost, "/api/webhooks/trendyol", body)

		assert.Equal(t, http.StatusAccepted, w.Code)
		got := decode[WebhookResponse](t, w).Data
		assert.True(t, got.Accepted)
		assert.False(t, got.Duplicate)
		assert.Equal(t, "1001", got.OrderNo)
		svc.AssertExpectations(t)
	})

	t.Run("duplicate delivery", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("HandleTrendyolWebhook", mock.Anything, mock.Anything).
			Return(&ordersync.WebhookReceipt{OrderNo: "1001", Duplicate: true}, nil)

		w := doRequest(newSyncEngine(svc, nil), http.MethodPost, "/api/webhooks/trendyol", body)

		assert.Equal(t, http.StatusAccepted, w.Code)
		got := decode[WebhookResponse](t, w).Data
		assert.False(t, got.Accepted)
		assert.True(t, got.Duplicate)
	})

	t.Run("ignored event type", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("HandleTrendyolWebhook", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: Shipped", integration.ErrWebhookIgnored))

		w := doRequest(newSyncEngine(svc, nil), http.MethodPost, "/api/webhooks/trendyol", body)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[WebhookResponse](t, w).Data.Ignored)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("HandleTrendyolWebhook", mock.Anything, mock.Anything).
			Return(nil, integration.ErrWebhookMalformed)

		w := doRequest(newSyncEngine(svc, nil), http.MethodPost, "/api/webhooks/trendyol", `{"x"`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decode[any](t, w).Error.Code)
	})

	t.Run("marketplace not wired", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("HandleTrendyolWebhook", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: trendyol", integration.ErrUnsupportedPlatform))

		w := doRequest(newSyncEngine(svc, nil), http.MethodPost, "/api/webhooks/trendyol", body)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// ---------------------------------------------------------------------------
// Manual sync and history
// ---------------------------------------------------------------------------

func TestSyncHandler_Trigger(t *testing.T) {
	t.Run("runs a manual sync", func(t *testing.T) {
		svc := new(MockSyncService)
		result := &integration.SyncResult{
			RunID:    "run-1",
			Platform: integration.PlatformCodeIkas,
			Trigger:  integration.SyncTriggerManual,
			Outcome:  integration.SyncOutcomeSuccess,
			Fetched:  3,
			Created:  4,
		}
		svc.On("Sync", mock.Anything, integration.PlatformCodeIkas, integration.SyncTriggerManual).Return(result, nil)

		w := doRequest(newSyncEngine(svc, nil), http.MethodPost, "/api/sync/IKAS", "")

		require.Equal(t, http.StatusOK, w.Code)
		got := decode[integration.SyncResult](t, w).Data
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, integration.SyncOutcomeSuccess, got.Outcome)
		assert.Equal(t, 4, got.Created)
		svc.AssertExpectations(t)
	})

	t.Run("unknown platform never reaches the service", func(t *testing.T) {
		svc := new(MockSyncService)

		w := doRequest(newSyncEngine(svc, nil), http.MethodPost, "/api/sync/amazon", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeUnsupportedPlatform, decode[any](t, w).Error.Code)
		svc.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSyncHandler_History(t *testing.T) {
	runs := []integration.SyncResult{
		{RunID: "b", Platform: integration.PlatformCodeTrendyol, Outcome: integration.SyncOutcomeEmpty},
		{RunID: "a", Platform: integration.PlatformCodeIkas, Outcome: integration.SyncOutcomeFailed, Reason: "timeout"},
	}

	t.Run("default limit", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("History", defaultHistoryLimit).Return(runs)

		w := doRequest(newSyncEngine(svc, nil), http.MethodGet, "/api/sync/history", "")

		require.Equal(t, http.StatusOK, w.Code)
		got := decode[[]integration.SyncResult](t, w).Data
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[0].RunID)
		assert.Equal(t, "timeout", got[1].Reason)
	})

	t.Run("explicit limit", func(t *testing.T) {
		svc := new(MockSyncService)
		svc.On("History", 1).Return(runs[:1])

		w := doRequest(newSyncEngine(svc, nil), http.MethodGet, "/api/sync/history?limit=1", "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]integration.SyncResult](t, w).Data, 1)
	})

	t.Run("bad limit", func(t *testing.T) {
		svc := new(MockSyncService)

		w := doRequest(newSyncEngine(svc, nil), http.MethodGet, "/api/sync/history?limit=zero", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "History", mock.Anything)
	})
}

func TestSyncHandler_Jobs(t *testing.T) {
	t.Run("scheduler disabled", func(t *testing.T) {
		w := doRequest(newSyncEngine(new(MockSyncService), nil), http.MethodGet, "/api/sync/jobs", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("reports job state", func(t *testing.T) {
		jobs := fakeJobs{stats: scheduler.Stats{
			Running:   true,
			TotalRuns: 5,
			Jobs: []scheduler.JobInfo{
				{Name: "order-sync:trendyol", Interval: 6 * time.Hour, Runs: 5},
			},
		}}

		w := doRequest(newSyncEngine(new(MockSyncService), jobs), http.MethodGet, "/api/sync/jobs", "")

		require.Equal(t, http.StatusOK, w.Code)
		got := decode[scheduler.Stats](t, w).Data
		assert.True(t, got.Running)
		require.Len(t, got.Jobs, 1)
		assert.Equal(t, "order-sync:trendyol", got.Jobs[0].Name)
		assert.Equal(t, 6*time.Hour, got.Jobs[0].Interval)
	})
}
