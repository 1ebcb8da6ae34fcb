package integration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordertrack/backend/internal/domain/order"
)

const (
	// UnknownCustomer is stored when no customer name can be derived
	UnknownCustomer = "Müşteri Bilgisi Yok"
	// UnknownProduct is stored when a line carries no product name
	UnknownProduct = "Ürün Adı Yok"
	// PlaceholderProduct names the single line recorded for an order without lines
	PlaceholderProduct = "Sipariş Detayı Yok"
)

// CanonicalizeOptions tunes how a raw order is mapped
type CanonicalizeOptions struct {
	// Now stands in for missing order numbers and dates
	Now time.Time
	// Placeholder emits one placeholder line for an order that has no lines.
	// The poll path sets it; the webhook path does not.
	Placeholder bool
}

func (o CanonicalizeOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// PhotoLookup describes the resolver call a line needs
type PhotoLookup struct {
	Code string
	Name string
}

// LineCandidate is one accepted marketplace line, ready to become an OrderLine
type LineCandidate struct {
	ProductName string
	// ProductCode is the model code from the platform fallback chain
	ProductCode string
	// PhotoURL comes straight from the marketplace payload when present
	PhotoURL string
	// Lookup is set when the photo must be resolved from object storage
	Lookup          *PhotoLookup
	Quantity        int
	Price           decimal.Decimal
	Personalization string
	Placeholder     bool
}

// CanonicalOrder is a marketplace order mapped onto the order line model.
// Lines holds only candidates that passed the business filter.
type CanonicalOrder struct {
	Platform        PlatformCode
	OrderNo         string
	OrderDate       string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	// Cancelled orders are never stored; existing lines are removed
	Cancelled bool
	Lines     []LineCandidate
	// Filtered counts lines rejected by the business filter
	Filtered int
	// RawData is the serialized source order
	RawData string
}

// NewOrderLine builds the line to persist for a candidate. photoURL is the
// resolved photo and overrides the candidate's own URL when non-empty.
func (o *CanonicalOrder) NewOrderLine(c LineCandidate, photoURL string) *order.OrderLine {
	if photoURL == "" {
		photoURL = c.PhotoURL
	}
	return &order.OrderLine{
		OrderNo:         o.OrderNo,
		OrderDate:       o.OrderDate,
		Platform:        o.Platform.OrderPlatform(),
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		ProductName:     c.ProductName,
		ProductCode:     c.ProductCode,
		PhotoURL:        photoURL,
		Quantity:        c.Quantity,
		Price:           c.Price,
		Status:          order.StatusNew,
		Personalization: c.Personalization,
		RawData:         o.RawData,
	}
}

// Canonicalize maps a raw order using the platform's rules
func Canonicalize(code PlatformCode, raw Payload, opts CanonicalizeOptions) (*CanonicalOrder, error) {
	switch code {
	case PlatformCodeTrendyol:
		return CanonicalizeTrendyol(raw, opts), nil
	case PlatformCodeIkas:
		return CanonicalizeIkas(raw, opts), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}
