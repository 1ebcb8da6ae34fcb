package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is one purchased item within one marketplace order.
// It is the unit of persistence and workflow.
type OrderLine struct {
	// ID is assigned by the store, monotonic
	ID int64
	// OrderNo is the marketplace order number (natural key)
	OrderNo string
	// OrderDate is the marketplace order date as received (ISO-8601 or epoch milliseconds)
	OrderDate string
	// Platform is the marketplace the line came from
	Platform Platform

	CustomerName    string
	CustomerPhone   string
	CustomerAddress string

	ProductName string
	// ProductCode is the model code derived through the fallback chain
	ProductCode string
	// PhotoURL is the resolved product photo, empty when unknown
	PhotoURL string
	Quantity int
	// Price is the unit price
	Price decimal.Decimal

	Status           Status
	ProductionStatus ProductionStatus

	// Note is free text set by operators
	Note string
	// Personalization holds customer options such as engraving text
	Personalization string
	// RawData is the source payload kept for audit
	RawData string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the mandatory descriptive fields
func (l *OrderLine) Validate() error {
	if strings.TrimSpace(l.OrderNo) == "" ||
		strings.TrimSpace(l.CustomerName) == "" ||
		strings.TrimSpace(l.ProductName) == "" {
		return ErrMissingRequiredField
	}
	if l.Status != "" && !l.Status.IsValid() {
		return ErrInvalidStatus
	}
	if l.ProductionStatus != "" && !l.ProductionStatus.IsValid() {
		return ErrInvalidProductionStatus
	}
	return nil
}

// HasRequiredFields reports whether the line can be kept by the store
func (l *OrderLine) HasRequiredFields() bool {
	return l.OrderNo != "" && l.CustomerName != "" && l.ProductName != ""
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// SetStatus moves the line to any enumerated status. Entering production
// without a sub-status initializes it to ProductionToBeCast; an existing
// sub-status is left untouched.
func (l *OrderLine) SetStatus(s Status) error {
	if !s.IsValid() {
		return ErrInvalidStatus
	}
	l.Status = s
	l.applyDefaults()
	return nil
}

// SetProductionStatus sets the manufacturing sub-status.
// Reaching ProductionDone does not change the primary status; callers move
// the line to StatusCertificate themselves.
func (l *OrderLine) SetProductionStatus(p ProductionStatus) error {
	if !p.IsValid() {
		return ErrInvalidProductionStatus
	}
	l.ProductionStatus = p
	return nil
}

// SetNote replaces the operator note; empty text clears it
func (l *OrderLine) SetNote(text string) {
	l.Note = text
}

// SetPhoto replaces the product photo URL
func (l *OrderLine) SetPhoto(url string) {
	l.PhotoURL = url
}

// PrepareForCreate fills defaults for a new line
func (l *OrderLine) PrepareForCreate() {
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Quantity <= 0 {
		l.Quantity = 1
	}
	if l.Price.IsNegative() {
		l.Price = decimal.Zero
	}
	l.applyDefaults()
}

func (l *OrderLine) applyDefaults() {
	if l.Status == StatusInProduction && l.ProductionStatus == "" {
		l.ProductionStatus = ProductionToBeCast
	}
}

// LineTotal returns price times quantity, counting a non-positive quantity as one
func (l *OrderLine) LineTotal() decimal.Decimal {
	qty := l.Quantity
	if qty <= 0 {
		qty = 1
	}
	return l.Price.Mul(decimal.NewFromInt(int64(qty)))
}

// OrderTime parses OrderDate
func (l *OrderLine) OrderTime() (time.Time, bool) {
	return ParseOrderDate(l.OrderDate)
}

// SortTime is the instant used for newest-first listing: CreatedAt, else the order date
func (l *OrderLine) SortTime() (time.Time, bool) {
	if !l.CreatedAt.IsZero() {
		return l.CreatedAt, true
	}
	return l.OrderTime()
}

// ---------------------------------------------------------------------------
// Date parsing
// ---------------------------------------------------------------------------

var orderDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
}

// ParseOrderDate accepts the date shapes seen in stored documents: ISO-8601
// variants and epoch milliseconds written as digits.
func ParseOrderDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if isDigits(raw) {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
