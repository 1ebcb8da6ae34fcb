package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/ordertrack/backend/internal/application/order"
	"github.com/ordertrack/backend/internal/infrastructure/persistence"
	"github.com/ordertrack/backend/internal/interfaces/http/dto"
	"github.com/ordertrack/backend/internal/interfaces/http/middleware"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newOrderEngine(t *testing.T) *gin.Engine {
	t.Helper()
	// each store write is one minute later so newest-first ordering is observable
	var ticks atomic.Int64
	storeClock := func() time.Time {
		return fixedNow.Add(time.Duration(ticks.Add(1)-1) * time.Minute)
	}
	repo, err := persistence.NewJSONOrderLineRepository(
		filepath.Join(t.TempDir(), "database.json"),
		persistence.WithClock(storeClock),
	)
	require.NoError(t, err)

	h := NewOrderHandler(apporder.NewService(repo,
		apporder.WithClock(func() time.Time { return fixedNow }),
		apporder.WithLocation(time.UTC),
	))

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api")
	orders := api.Group("/siparisler")
	orders.GET("", h.List)
	orders.POST("", h.Create)
	orders.POST("/update-fotograflar", h.RefreshPhotos)
	orders.DELETE("/cleanup/old", h.PurgeOld)
	orders.DELETE("/cleanup/all", h.PurgeAll)
	orders.GET("/:id", h.GetByID)
	orders.DELETE("/:id", h.Delete)
	orders.PATCH("/:id/durum", h.UpdateStatus)
	orders.PATCH("/:id/uretim-durum", h.UpdateProductionStatus)
	orders.PATCH("/:id/not", h.UpdateNote)
	orders.PATCH("/:id/fotograf", h.UpdatePhoto)
	api.GET("/raporlar", h.Report)
	return engine
}

func orderBody(orderNo, date string) string {
	return fmt.Sprintf(`{
		"trendyol_siparis_no": %q,
		"siparis_tarihi": %q,
		"musteri_adi": "Ayşe Yılmaz",
		"urun_adi": "14 Ayar Altın Kolye",
		"urun_kodu": "KPA38",
		"miktar": 2,
		"fiyat": 1500.5,
		"platform": "Trendyol"
	}`, orderNo, date)
}

func createLine(t *testing.T, engine *gin.Engine, orderNo, date string) OrderLineResponse {
	t.Helper()
	w := doRequest(engine, http.MethodPost, "/api/siparisler", orderBody(orderNo, date))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[OrderLineResponse](t, w).Data
}

// ---------------------------------------------------------------------------
// Create / read
// ---------------------------------------------------------------------------

func TestOrderHandler_Create(t *testing.T) {
	engine := newOrderEngine(t)

	t.Run("stores a line with defaults", func(t *testing.T) {
		line := createLine(t, engine, "1001", "2024-05-09T08:00:00Z")

		assert.Equal(t, int64(1), line.ID)
		assert.Equal(t, "1001", line.OrderNo)
		assert.Equal(t, "Yeni", line.Status)
		assert.Equal(t, 2, line.Quantity)
		assert.InDelta(t, 1500.5, line.Price, 0.0001)
		assert.Equal(t, "Trendyol", line.Platform)
		assert.Equal(t, "2024-05-10T12:00:00.000Z", line.CreatedAt)
	})

	t.Run("production status defaults when created in production", func(t *testing.T) {
		w := doRequest(engine, http.MethodPost, "/api/siparisler",
			`{"trendyol_siparis_no":"1002","musteri_adi":"Ali","urun_adi":"Yüzük","durum":"Üretimde"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Döküme Gönderilecek", decode[OrderLineResponse](t, w).Data.ProductionStatus)
	})

	t.Run("missing required field", func(t *testing.T) {
		w := doRequest(engine, http.MethodPost, "/api/siparisler", `{"trendyol_siparis_no":"1003","urun_adi":"Yüzük"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode[any](t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.Len(t, env.Error.Details, 1)
		assert.Equal(t, "musteri_adi", env.Error.Details[0].Field)
	})

	t.Run("blank required field", func(t *testing.T) {
		w := doRequest(engine, http.MethodPost, "/api/siparisler",
			`{"trendyol_siparis_no":"1003","musteri_adi":"   ","urun_adi":"Yüzük"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidationRequired, decode[any](t, w).Error.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := doRequest(engine, http.MethodPost, "/api/siparisler",
			`{"trendyol_siparis_no":"1004","musteri_adi":"Ali","urun_adi":"Yüzük","durum":"Kargoda"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrderHandler_ListAndGet(t *testing.T) {
	engine := newOrderEngine(t)
	first := createLine(t, engine, "1001", "2024-05-08T08:00:00Z")
	second := createLine(t, engine, "1002", "2024-05-09T08:00:00Z")

	w := doRequest(engine, http.MethodPatch, fmt.Sprintf("/api/siparisler/%d/durum", first.ID), `{"durum":"Sertifika"}`)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("lists newest first", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/siparisler", "")
		require.Equal(t, http.StatusOK, w.Code)
		lines := decode[[]OrderLineResponse](t, w).Data
		require.Len(t, lines, 2)
		assert.Equal(t, second.ID, lines[0].ID)
		assert.Equal(t, first.ID, lines[1].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/siparisler?durum=Sertifika", "")
		require.Equal(t, http.StatusOK, w.Code)
		lines := decode[[]OrderLineResponse](t, w).Data
		require.Len(t, lines, 1)
		assert.Equal(t, first.ID, lines[0].ID)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/siparisler?durum=Tamamland%C4%B1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/siparisler?durum=Kargoda", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidStatus, decode[any](t, w).Error.Code)
	})

	t.Run("gets one line", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, fmt.Sprintf("/api/siparisler/%d", second.ID), "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "1002", decode[OrderLineResponse](t, w).Data.OrderNo)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/siparisler/99", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode[any](t, w).Error.Code)
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/siparisler/abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// ---------------------------------------------------------------------------
// Updates
// ---------------------------------------------------------------------------

func TestOrderHandler_Updates(t *testing.T) {
	engine := newOrderEngine(t)
	line := createLine(t, engine, "1001", "2024-05-09T08:00:00Z")
	path := func(suffix string) string { return fmt.Sprintf("/api/siparisler/%d/%s", line.ID, suffix) }

	t.Run("status to production sets the sub-status", func(t *testing.T) {
		w := doRequest(engine, http.MethodPatch, path("durum"), `{"durum":"Üretimde"}`)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[OrderLineResponse](t, w).Data
		assert.Equal(t, "Üretimde", got.Status)
		assert.Equal(t, "Döküme Gönderilecek", got.ProductionStatus)
	})

	t.Run("production status", func(t *testing.T) {
		w := doRequest(engine, http.MethodPatch, path("uretim-durum"), `{"uretimDurum":"Atölye"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Atölye", decode[OrderLineResponse](t, w).Data.ProductionStatus)
	})

	t.Run("note set and cleared", func(t *testing.T) {
		w := doRequest(engine, http.MethodPatch, path("not"), `{"not":"Kutuya isim yazılacak"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Kutuya isim yazılacak", decode[OrderLineResponse](t, w).Data.Note)

		w = doRequest(engine, http.MethodPatch, path("not"), `{"not":null}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[OrderLineResponse](t, w).Data.Note)
	})

	t.Run("photo", func(t *testing.T) {
		w := doRequest(engine, http.MethodPatch, path("fotograf"), `{"url":"https://cdn.example.com/KPA38.jpg"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://cdn.example.com/KPA38.jpg", decode[OrderLineResponse](t, w).Data.PhotoURL)
	})

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
	}{
		{"unknown status", path("durum"), `{"durum":"Kargoda"}`, http.StatusBadRequest},
		{"missing status", path("durum"), `{}`, http.StatusBadRequest},
		{"unknown production status", path("uretim-durum"), `{"uretimDurum":"Fırında"}`, http.StatusBadRequest},
		{"note must be a string", path("not"), `{"not":42}`, http.StatusBadRequest},
		{"photo url required", path("fotograf"), `{"url":""}`, http.StatusBadRequest},
		{"photo url must be a url", path("fotograf"), `{"url":"not a url"}`, http.StatusBadRequest},
		{"status on unknown line", "/api/siparisler/99/durum", `{"durum":"Yeni"}`, http.StatusNotFound},
		{"note on unknown line", "/api/siparisler/99/not", `{"not":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(engine, http.MethodPatch, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.False(t, decode[any](t, w).Success)
		})
	}
}

func TestOrderHandler_Delete(t *testing.T) {
	engine := newOrderEngine(t)
	line := createLine(t, engine, "1001", "2024-05-09T08:00:00Z")

	w := doRequest(engine, http.MethodDelete, fmt.Sprintf("/api/siparisler/%d", line.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sipariş silindi", decode[dto.MessageResponse](t, w).Data.Message)

	w = doRequest(engine, http.MethodGet, fmt.Sprintf("/api/siparisler/%d", line.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(engine, http.MethodDelete, fmt.Sprintf("/api/siparisler/%d", line.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ---------------------------------------------------------------------------
// Cleanup, photos, report
// ---------------------------------------------------------------------------

func TestOrderHandler_PurgeOld(t *testing.T) {
	engine := newOrderEngine(t)
	createLine(t, engine, "1001", "2024-05-01T08:00:00Z")
	createLine(t, engine, "1002", "2024-05-08T08:00:00Z")
	createLine(t, engine, "1003", "2024-05-10T08:00:00Z")

	w := doRequest(engine, http.MethodDelete, "/api/siparisler/cleanup/old?days=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[PurgeResponse](t, w).Data.DeletedCount)

	w = doRequest(engine, http.MethodDelete, "/api/siparisler/cleanup/old", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[PurgeResponse](t, w).Data.DeletedCount)

	w = doRequest(engine, http.MethodGet, "/api/siparisler", "")
	lines := decode[[]OrderLineResponse](t, w).Data
	require.Len(t, lines, 1)
	assert.Equal(t, "1003", lines[0].OrderNo)

	t.Run("rejects bad days", func(t *testing.T) {
		for _, q := range []string{"abc", "0", "-3"} {
			w := doRequest(engine, http.MethodDelete, "/api/siparisler/cleanup/old?days="+q, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

func TestOrderHandler_PurgeAll(t *testing.T) {
	engine := newOrderEngine(t)
	createLine(t, engine, "1001", "2024-05-01T08:00:00Z")
	createLine(t, engine, "1002", "2024-05-08T08:00:00Z")

	w := doRequest(engine, http.MethodDelete, "/api/siparisler/cleanup/all", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, "/api/siparisler", "")
	assert.Empty(t, decode[[]OrderLineResponse](t, w).Data)

	// the id counter restarts with the emptied document
	line := createLine(t, engine, "1003", "2024-05-09T08:00:00Z")
	assert.Equal(t, int64(1), line.ID)
}

func TestOrderHandler_RefreshPhotosWithoutSource(t *testing.T) {
	engine := newOrderEngine(t)
	createLine(t, engine, "1001", "2024-05-09T08:00:00Z")
	w := doRequest(engine, http.MethodPost, "/api/siparisler",
		`{"trendyol_siparis_no":"1002","musteri_adi":"Ali","urun_adi":"Yüzük"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(engine, http.MethodPost, "/api/siparisler/update-fotograflar", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[RefreshPhotosResponse](t, w).Data
	assert.Equal(t, 0, got.Updated)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 1, got.Total)
}

func TestOrderHandler_Report(t *testing.T) {
	engine := newOrderEngine(t)
	createLine(t, engine, "1001", "2024-04-20T08:00:00Z")
	createLine(t, engine, "1002", "2024-05-08T08:00:00Z")

	t.Run("all statuses present", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/raporlar", "")
		require.Equal(t, http.StatusOK, w.Code)
		rows := decode[[]StatusSummaryResponse](t, w).Data
		require.Len(t, rows, 7)
		assert.Equal(t, "Yeni", rows[0].Status)
		assert.Equal(t, 2, rows[0].Count)
		assert.Equal(t, 4, rows[0].TotalQuantity)
		assert.InDelta(t, 6002.0, rows[0].TotalPrice, 0.0001)
		for _, r := range rows[1:] {
			assert.Zero(t, r.Count, r.Status)
		}
	})

	t.Run("date range narrows", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/raporlar?baslangic=2024-05-01&bitis=2024-05-31", "")
		require.Equal(t, http.StatusOK, w.Code)
		rows := decode[[]StatusSummaryResponse](t, w).Data
		assert.Equal(t, 1, rows[0].Count)
	})

	t.Run("bad bound", func(t *testing.T) {
		w := doRequest(engine, http.MethodGet, "/api/raporlar?baslangic=yesterday", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidDateRange, decode[any](t, w).Error.Code)
	})
}
