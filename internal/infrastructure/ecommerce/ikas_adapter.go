package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ordertrack/backend/internal/domain/integration"
)

// ikasListOrderQuery requests the fields canonicalization reads
const ikasListOrderQuery = `query listOrder($orderedAt: DateFilterInput, $pagination: PaginationInput) {
  listOrder(orderedAt: $orderedAt, pagination: $pagination) {
    count
    hasNext
    page
    limit
    data {
      id
      orderNumber
      orderedAt
      status
      customer { firstName lastName email phone }
      billingAddress {
        firstName
        lastName
        addressLine1
        addressLine2
        city { name }
        district { name }
        state { name }
        country { name }
        postalCode
        phone
      }
      shippingAddress {
        firstName
        lastName
        addressLine1
        addressLine2
        city { name }
        district { name }
        state { name }
        country { name }
        postalCode
        phone
      }
      orderLineItems {
        id
        quantity
        price
        finalPrice
        options { name value }
        variant { id name sku barcodeList productId }
      }
    }
  }
}`

// IkasAdapter pulls recent orders from the Ikas admin GraphQL API
type IkasAdapter struct {
	config *IkasConfig
	tokens *IkasTokenSource
	clientOptions
}

// Ensure IkasAdapter implements Connector
var _ integration.Connector = (*IkasAdapter)(nil)

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type ikasListOrderResponse struct {
	Data *struct {
		ListOrder *struct {
			Count json.Number `json:"count"`
			Page  json.Number `json:"page"`
			Data  []any       `json:"data"`
		} `json:"listOrder"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// NewIkasAdapter creates an Ikas connector. Missing credentials are allowed;
// the connector then reports itself as not configured.
func NewIkasAdapter(config *IkasConfig, opts ...Option) *IkasAdapter {
	if config == nil {
		config = &IkasConfig{}
	}
	config.applyDefaults()
	a := &IkasAdapter{
		config:        config,
		clientOptions: newClientOptions(config.TimeoutSeconds, opts),
	}
	a.tokens = newIkasTokenSource(config, &a.clientOptions)
	return a
}

// Platform returns the platform code this adapter handles
func (a *IkasAdapter) Platform() integration.PlatformCode {
	return integration.PlatformCodeIkas
}

// IsConfigured reports whether client credentials are present
func (a *IkasAdapter) IsConfigured() bool {
	return a.config.IsConfigured()
}

// FetchOrders returns the orders of the trailing seven days.
// GraphQL-level errors yield an empty result.
func (a *IkasAdapter) FetchOrders(ctx context.Context) ([]integration.Payload, error) {
	if !a.IsConfigured() {
		a.logger.Warn("Ikas credentials missing, skipping fetch")
		return nil, integration.ErrPlatformNotConfigured
	}

	token, err := a.tokens.Token(ctx)
	if err != nil {
		a.logger.Error("Ikas token request failed", zap.Error(err))
		return nil, err
	}

	end := a.now()
	start := end.Add(-defaultLookback)
	payload, err := json.Marshal(graphQLRequest{
		Query: ikasListOrderQuery,
		Variables: map[string]any{
			"orderedAt":  map[string]int64{"gte": start.UnixMilli(), "lte": end.UnixMilli()},
			"pagination": map[string]int{"page": 1, "limit": a.config.PageLimit},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ikas: failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.GraphQLURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ikas: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	body, err := a.do(req)
	if err != nil {
		if errors.Is(err, integration.ErrPlatformAuthFailed) {
			a.tokens.Invalidate()
		}
		a.logger.Error("Ikas order request failed", zap.Error(err))
		return nil, err
	}

	var resp ikasListOrderResponse
	if err := decodeJSON(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		a.logger.Warn("Ikas GraphQL errors", zap.Strings("errors", msgs))
		return nil, nil
	}
	if resp.Data == nil || resp.Data.ListOrder == nil {
		a.logger.Warn("Unexpected Ikas response", zap.String("body", snippet(body)))
		return nil, nil
	}

	orders := toPayloads(resp.Data.ListOrder.Data)
	a.logger.Info("Fetched Ikas orders",
		zap.Int("count", len(orders)),
		zap.String("total", resp.Data.ListOrder.Count.String()),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	return orders, nil
}
