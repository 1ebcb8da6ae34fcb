package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apporder "github.com/ordertrack/backend/internal/application/order"
	"github.com/ordertrack/backend/internal/domain/integration"
	"github.com/ordertrack/backend/internal/domain/order"
	"github.com/ordertrack/backend/internal/infrastructure/logger"
	"github.com/ordertrack/backend/internal/interfaces/http/dto"
	"github.com/ordertrack/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	if id := logger.GetRequestID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// parseID reads the numeric :id path parameter
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindJSON binds the body and answers 400 on failure. It reports whether
// the handler may continue.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// errorMapping pairs a sentinel with the code it is reported under
type errorMapping struct {
	err     error
	code    string
	message string
}

var errorMappings = []errorMapping{
	{order.ErrOrderLineNotFound, dto.ErrCodeNotFound, "Sipariş bulunamadı"},
	{order.ErrInvalidStatus, dto.ErrCodeInvalidStatus, "Geçersiz durum"},
	{order.ErrInvalidProductionStatus, dto.ErrCodeInvalidProductionStatus, "Geçersiz üretim durumu"},
	{order.ErrMissingRequiredField, dto.ErrCodeValidationRequired, "Müşteri adı, ürün adı ve sipariş numarası zorunludur"},
	{order.ErrInvalidDateRange, dto.ErrCodeInvalidDateRange, "Geçersiz tarih aralığı"},
	{apporder.ErrInvalidPurgeDays, dto.ErrCodeInvalidInput, "Gün sayısı pozitif olmalı"},
	{integration.ErrUnsupportedPlatform, dto.ErrCodeUnsupportedPlatform, "Desteklenmeyen platform"},
	{integration.ErrWebhookMalformed, dto.ErrCodeInvalidJSON, "Geçersiz webhook gövdesi"},
}

// HandleError converts domain and application errors to HTTP responses.
// Anything unrecognized is logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			h.ErrorWithCode(c, m.code, m.message)
			return
		}
	}

	logger.GetGinLogger(c).Error("Request failed", zap.Error(err))
	_ = c.Error(err)
	h.InternalError(c, "An unexpected error occurred")
}
