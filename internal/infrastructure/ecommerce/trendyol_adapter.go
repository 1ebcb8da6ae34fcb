package ecommerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/ordertrack/backend/internal/domain/integration"
)

// TrendyolAdapter pulls recent orders from the Trendyol supplier API
type TrendyolAdapter struct {
	config *TrendyolConfig
	clientOptions
}

// Ensure TrendyolAdapter implements Connector
var _ integration.Connector = (*TrendyolAdapter)(nil)

// NewTrendyolAdapter creates a Trendyol connector. Missing credentials are
// allowed; the connector then reports itself as not configured.
func NewTrendyolAdapter(config *TrendyolConfig, opts ...Option) *TrendyolAdapter {
	if config == nil {
		config = &TrendyolConfig{}
	}
	config.applyDefaults()
	return &TrendyolAdapter{
		config:        config,
		clientOptions: newClientOptions(config.TimeoutSeconds, opts),
	}
}

// Platform returns the platform code this adapter handles
func (a *TrendyolAdapter) Platform() integration.PlatformCode {
	return integration.PlatformCodeTrendyol
}

// IsConfigured reports whether credentials are present
func (a *TrendyolAdapter) IsConfigured() bool {
	return a.config.IsConfigured()
}

// FetchOrders returns the orders of the trailing seven days
func (a *TrendyolAdapter) FetchOrders(ctx context.Context) ([]integration.Payload, error) {
	if !a.IsConfigured() {
		a.logger.Warn("Trendyol credentials missing, skipping fetch")
		return nil, integration.ErrPlatformNotConfigured
	}

	end := a.now()
	start := end.Add(-defaultLookback)

	q := url.Values{}
	q.Set("startDate", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endDate", strconv.FormatInt(end.UnixMilli(), 10))
	q.Set("page", "0")
	q.Set("size", strconv.Itoa(a.config.PageSize))

	endpoint := fmt.Sprintf("%s/%s/orders?%s", a.config.APIBaseURL, url.PathEscape(a.config.SupplierID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("trendyol: failed to create request: %w", err)
	}
	req.SetBasicAuth(a.config.APIKey, a.config.APISecret)
	req.Header.Set("Content-Type", "application/json")

	body, err := a.do(req)
	if err != nil {
		a.logger.Error("Trendyol order request failed", zap.Error(err))
		return nil, err
	}

	orders, err := parseTrendyolOrders(body)
	if err != nil {
		a.logger.Warn("Unexpected Trendyol response", zap.String("body", snippet(body)), zap.Error(err))
		return nil, err
	}

	a.logger.Info("Fetched Trendyol orders",
		zap.Int("count", len(orders)),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return orders, nil
}

// parseTrendyolOrders accepts a bare array or an array under content, data
// or orders.
func parseTrendyolOrders(body []byte) ([]integration.Payload, error) {
	var doc any
	if err := decodeJSON(body, &doc); err != nil {
		return nil, err
	}

	switch v := doc.(type) {
	case []any:
		return toPayloads(v), nil
	case map[string]any:
		for _, key := range []string{"content", "data", "orders"} {
			if items, ok := v[key].([]any); ok {
				return toPayloads(items), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no order array in response", integration.ErrPlatformInvalidResponse)
}
