package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, body) }
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, DefaultBasePath, r.basePath)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithBasePath("/v2"))
	assert.Equal(t, "/v2", r.basePath)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	orders := NewDomainGroup("orders", "/siparisler")
	orders.GET("", text("list"))
	orders.DELETE("/cleanup/all", text("purge"))
	orders.GET("/:id", text("one"))
	orders.PATCH("/:id/durum", text("status"))

	NewRouter(engine).Register(orders).Setup()

	tests := []struct {
		method string
		target string
		want   string
	}{
		{http.MethodGet, "/api/siparisler", "list"},
		{http.MethodGet, "/api/siparisler/7", "one"},
		{http.MethodPatch, "/api/siparisler/7/durum", "status"},
		{http.MethodDelete, "/api/siparisler/cleanup/all", "purge"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := serve(engine, tt.method, tt.target)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/siparisler").Code)
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("sync", "/sync")
	g.Use(func(c *gin.Context) {
		c.Header("X-Group", "sync")
		c.Next()
	})
	g.GET("/history", text("history"))

	NewRouter(engine).Register(g).Setup()

	w := serve(engine, http.MethodGet, "/api/sync/history")
	assert.Equal(t, "sync", w.Header().Get("X-Group"))
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("integrations", "/")
	g.Group("webhooks", "/webhooks").POST("/trendyol", text("webhook"))
	g.Group("sync", "/sync").POST("/:platform", text("sync"))

	NewRouter(engine).Register(g).Setup()

	assert.Equal(t, "webhook", serve(engine, http.MethodPost, "/api/webhooks/trendyol").Body.String())
	assert.Equal(t, "sync", serve(engine, http.MethodPost, "/api/sync/ikas").Body.String())
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("orders", "/siparisler")
	g.GET("", text(""))
	g.PATCH("/:id/not", text(""))
	g.Group("cleanup", "/cleanup").DELETE("/old", text(""))

	assert.Equal(t, "orders", g.Name())
	assert.Equal(t, "/siparisler", g.Prefix())
	assert.Equal(t, []string{
		"GET /siparisler",
		"PATCH /siparisler/:id/not",
		"DELETE /siparisler/cleanup/old",
	}, g.Routes())
}
