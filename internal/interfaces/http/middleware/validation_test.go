package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordertrack/backend/internal/interfaces/http/dto"
)

type statusRequest struct {
	Status     string `json:"durum" binding:"required,order_status"`
	Production string `json:"uretimDurum" binding:"omitempty,production_status"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Status))
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSetupValidator_StatusTags(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"valid status", `{"durum":"Üretimde"}`, http.StatusOK, ""},
		{"valid status and production status", `{"durum":"Üretimde","uretimDurum":"Dökümde"}`, http.StatusOK, ""},
		{"unknown status", `{"durum":"Kargoda"}`, http.StatusBadRequest, "durum"},
		{"missing status", `{}`, http.StatusBadRequest, "durum"},
		{"unknown production status", `{"durum":"Yeni","uretimDurum":"Fırında"}`, http.StatusBadRequest, "uretimDurum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := postJSON(router, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantField == "" {
				assert.True(t, resp.Success)
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			require.Len(t, resp.Error.Details, 1)
			assert.Equal(t, tt.wantField, resp.Error.Details[0].Field)
		})
	}
}

func TestHandleValidationError_InvalidJSON(t *testing.T) {
	router := newValidationRouter()

	w, resp := postJSON(router, `{"durum":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
}

func TestGetValidationMessage_ListsStatuses(t *testing.T) {
	router := newValidationRouter()

	_, resp := postJSON(router, `{"durum":"x"}`)
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 1)
	assert.Contains(t, resp.Error.Details[0].Message, "Operasyon Onayı")
	assert.Contains(t, resp.Error.Details[0].Message, "İade/Hatalı")
}
