package integration

import (
	"context"
	"strings"

	"github.com/ordertrack/backend/internal/domain/order"
)

// ---------------------------------------------------------------------------
// PlatformCode identifies a marketplace
// ---------------------------------------------------------------------------

// PlatformCode identifies a marketplace connector
type PlatformCode string

const (
	// PlatformCodeTrendyol is the REST marketplace with webhook delivery
	PlatformCodeTrendyol PlatformCode = "trendyol"
	// PlatformCodeIkas is the GraphQL marketplace with client-credentials auth
	PlatformCodeIkas PlatformCode = "ikas"
)

// AllPlatformCodes returns the supported marketplaces
func AllPlatformCodes() []PlatformCode {
	return []PlatformCode{PlatformCodeTrendyol, PlatformCodeIkas}
}

// IsValid returns true if the platform code is supported
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeTrendyol, PlatformCodeIkas:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// OrderPlatform returns the value stored on order lines
func (c PlatformCode) OrderPlatform() order.Platform {
	switch c {
	case PlatformCodeTrendyol:
		return order.PlatformTrendyol
	case PlatformCodeIkas:
		return order.PlatformIkas
	default:
		return order.Platform(c)
	}
}

// ParsePlatformCode accepts a platform name in any letter case
func ParsePlatformCode(raw string) (PlatformCode, error) {
	c := PlatformCode(strings.ToLower(strings.TrimSpace(raw)))
	if !c.IsValid() {
		return "", ErrUnsupportedPlatform
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Connector port
// ---------------------------------------------------------------------------

// Connector pulls recent orders from one marketplace.
// Implementations live in the infrastructure layer.
type Connector interface {
	// Platform returns the marketplace this connector talks to
	Platform() PlatformCode

	// IsConfigured reports whether credentials are present.
	// An unconfigured connector returns no orders and no error.
	IsConfigured() bool

	// FetchOrders returns the raw orders of the trailing sync window.
	// Errors wrap ErrPlatformUnavailable, ErrPlatformAuthFailed,
	// ErrPlatformRequestFailed or ErrPlatformInvalidResponse.
	FetchOrders(ctx context.Context) ([]Payload, error)
}
