// Package models holds the on-disk layout of the order store document and
// its mapping to the order domain.
package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordertrack/backend/internal/domain/order"
)

// TimestampLayout is the layout of created_at/updated_at in the document
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DocumentModel is the on-disk layout of the order store
type DocumentModel struct {
	Siparisler []*OrderLineModel `json:"siparisler"`
	LastID     int64             `json:"lastId"`
}

// OrderLineModel is the persistence model for the OrderLine domain entity.
// Field names follow the existing document so older files stay readable.
type OrderLineModel struct {
	ID              int64       `json:"id"`
	OrderNo         FlexString  `json:"trendyol_siparis_no"`
	OrderDate       FlexString  `json:"siparis_tarihi"`
	CustomerName    string      `json:"musteri_adi"`
	CustomerPhone   string      `json:"musteri_telefon,omitempty"`
	CustomerAddress string      `json:"musteri_adres,omitempty"`
	ProductName     string      `json:"urun_adi"`
	ProductCode     FlexString  `json:"urun_kodu,omitempty"`
	PhotoURL        string      `json:"urun_resmi,omitempty"`
	Quantity        FlexDecimal `json:"miktar"`
	Price           FlexDecimal `json:"fiyat"`
	Status          string      `json:"durum"`
	ProductionState string      `json:"uretim_durumu,omitempty"`
	Note            string      `json:"not,omitempty"`
	CreatedAt       string      `json:"created_at,omitempty"`
	UpdatedAt       string      `json:"updated_at,omitempty"`
	TrendyolData    string      `json:"trendyol_data,omitempty"`
	IkasData        string      `json:"ikas_data,omitempty"`
	Personalization string      `json:"kisisellestirme,omitempty"`
	Platform        string      `json:"platform,omitempty"`
}

// IsComplete reports whether the record carries its natural key, customer
// name and product name. Incomplete records are dropped on load.
func (m *OrderLineModel) IsComplete() bool {
	return m != nil && m.OrderNo != "" && m.CustomerName != "" && m.ProductName != ""
}

// ToDomain converts the persistence model to a domain OrderLine entity.
func (m *OrderLineModel) ToDomain() *order.OrderLine {
	l := &order.OrderLine{
		ID:               m.ID,
		OrderNo:          string(m.OrderNo),
		OrderDate:        string(m.OrderDate),
		Platform:         order.Platform(m.Platform),
		CustomerName:     m.CustomerName,
		CustomerPhone:    m.CustomerPhone,
		CustomerAddress:  m.CustomerAddress,
		ProductName:      m.ProductName,
		ProductCode:      string(m.ProductCode),
		PhotoURL:         m.PhotoURL,
		Quantity:         int(m.Quantity.Decimal.IntPart()),
		Price:            m.Price.Decimal,
		Status:           order.Status(m.Status),
		ProductionStatus: order.ProductionStatus(m.ProductionState),
		Note:             m.Note,
		Personalization:  m.Personalization,
		RawData:          m.TrendyolData,
	}
	if l.RawData == "" {
		l.RawData = m.IkasData
	}
	l.CreatedAt = parseTimestamp(m.CreatedAt)
	l.UpdatedAt = parseTimestamp(m.UpdatedAt)
	return l
}

// FromDomain populates the persistence model from a domain OrderLine entity.
func (m *OrderLineModel) FromDomain(l *order.OrderLine) {
	m.ID = l.ID
	m.OrderNo = FlexString(l.OrderNo)
	m.OrderDate = FlexString(l.OrderDate)
	m.CustomerName = l.CustomerName
	m.CustomerPhone = l.CustomerPhone
	m.CustomerAddress = l.CustomerAddress
	m.ProductName = l.ProductName
	m.ProductCode = FlexString(l.ProductCode)
	m.PhotoURL = l.PhotoURL
	m.Quantity = FlexDecimal{Decimal: decimal.NewFromInt(int64(l.Quantity))}
	m.Price = FlexDecimal{Decimal: l.Price}
	m.Status = string(l.Status)
	m.ProductionState = string(l.ProductionStatus)
	m.Note = l.Note
	m.Personalization = l.Personalization
	m.Platform = string(l.Platform)
	m.TrendyolData, m.IkasData = "", ""
	if l.Platform == order.PlatformIkas {
		m.IkasData = l.RawData
	} else {
		m.TrendyolData = l.RawData
	}
	m.CreatedAt = formatTimestamp(l.CreatedAt)
	m.UpdatedAt = formatTimestamp(l.UpdatedAt)
}

// OrderLineModelFromDomain creates a new persistence model from a domain OrderLine entity.
func OrderLineModelFromDomain(l *order.OrderLine) *OrderLineModel {
	m := &OrderLineModel{}
	m.FromDomain(l)
	return m
}

func parseTimestamp(raw string) time.Time {
	if t, ok := order.ParseOrderDate(raw); ok {
		return t
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// ---------------------------------------------------------------------------
// Lenient scalar types
// ---------------------------------------------------------------------------

// FlexString decodes a JSON string or number. Order numbers and dates were
// written as numbers by some producers.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

// FlexDecimal decodes a JSON number or numeric string and encodes as a bare number
type FlexDecimal struct {
	decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler
func (d *FlexDecimal) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		d.Decimal = decimal.Zero
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	d.Decimal = v
	return nil
}

// MarshalJSON implements json.Marshaler
func (d FlexDecimal) MarshalJSON() ([]byte, error) {
	return []byte(d.Decimal.String()), nil
}
