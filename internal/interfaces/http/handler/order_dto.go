package handler

import (
	"time"

	"github.com/shopspring/decimal"

	apporder "github.com/ordertrack/backend/internal/application/order"
	"github.com/ordertrack/backend/internal/domain/order"
)

// timestampLayout matches the created_at/updated_at values in the store document
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// OrderLineResponse is an order line as the operator panel reads it.
// Keys follow the store document.
type OrderLineResponse struct {
	ID               int64   `json:"id"`
	OrderNo          string  `json:"trendyol_siparis_no"`
	OrderDate        string  `json:"siparis_tarihi"`
	CustomerName     string  `json:"musteri_adi"`
	CustomerPhone    string  `json:"musteri_telefon,omitempty"`
	CustomerAddress  string  `json:"musteri_adres,omitempty"`
	ProductName      string  `json:"urun_adi"`
	ProductCode      string  `json:"urun_kodu,omitempty"`
	PhotoURL         string  `json:"urun_resmi,omitempty"`
	Quantity         int     `json:"miktar"`
	Price            float64 `json:"fiyat"`
	Status           string  `json:"durum"`
	ProductionStatus string  `json:"uretim_durumu,omitempty"`
	Note             string  `json:"not,omitempty"`
	Personalization  string  `json:"kisisellestirme,omitempty"`
	Platform         string  `json:"platform,omitempty"`
	CreatedAt        string  `json:"created_at,omitempty"`
	UpdatedAt        string  `json:"updated_at,omitempty"`
}

func toOrderLineResponse(l *order.OrderLine) OrderLineResponse {
	return OrderLineResponse{
		ID:               l.ID,
		OrderNo:          l.OrderNo,
		OrderDate:        l.OrderDate,
		CustomerName:     l.CustomerName,
		CustomerPhone:    l.CustomerPhone,
		CustomerAddress:  l.CustomerAddress,
		ProductName:      l.ProductName,
		ProductCode:      l.ProductCode,
		PhotoURL:         l.PhotoURL,
		Quantity:         l.Quantity,
		Price:            l.Price.InexactFloat64(),
		Status:           string(l.Status),
		ProductionStatus: string(l.ProductionStatus),
		Note:             l.Note,
		Personalization:  l.Personalization,
		Platform:         string(l.Platform),
		CreatedAt:        formatTimestamp(l.CreatedAt),
		UpdatedAt:        formatTimestamp(l.UpdatedAt),
	}
}

func toOrderLineResponses(lines []*order.OrderLine) []OrderLineResponse {
	out := make([]OrderLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, toOrderLineResponse(l))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// CreateOrderLineRequest is the body of a manual order line creation
type CreateOrderLineRequest struct {
	OrderNo          string          `json:"trendyol_siparis_no" binding:"required"`
	OrderDate        string          `json:"siparis_tarihi"`
	CustomerName     string          `json:"musteri_adi" binding:"required"`
	CustomerPhone    string          `json:"musteri_telefon"`
	CustomerAddress  string          `json:"musteri_adres"`
	ProductName      string          `json:"urun_adi" binding:"required"`
	ProductCode      string          `json:"urun_kodu"`
	PhotoURL         string          `json:"urun_resmi"`
	Quantity         int             `json:"miktar" binding:"gte=0"`
	Price            decimal.Decimal `json:"fiyat"`
	Status           string          `json:"durum" binding:"omitempty,order_status"`
	ProductionStatus string          `json:"uretim_durumu" binding:"omitempty,production_status"`
	Note             string          `json:"not"`
	Personalization  string          `json:"kisisellestirme"`
	Platform         string          `json:"platform" binding:"omitempty,oneof=Trendyol Ikas"`
}

func (r *CreateOrderLineRequest) toInput() apporder.CreateInput {
	return apporder.CreateInput{
		OrderNo:          r.OrderNo,
		OrderDate:        r.OrderDate,
		Platform:         order.Platform(r.Platform),
		CustomerName:     r.CustomerName,
		CustomerPhone:    r.CustomerPhone,
		CustomerAddress:  r.CustomerAddress,
		ProductName:      r.ProductName,
		ProductCode:      r.ProductCode,
		PhotoURL:         r.PhotoURL,
		Quantity:         r.Quantity,
		Price:            r.Price,
		Status:           order.Status(r.Status),
		ProductionStatus: order.ProductionStatus(r.ProductionStatus),
		Note:             r.Note,
		Personalization:  r.Personalization,
	}
}

// UpdateStatusRequest moves a line to another primary status
type UpdateStatusRequest struct {
	Status string `json:"durum" binding:"required,order_status"`
}

// UpdateProductionStatusRequest sets the production sub-status
type UpdateProductionStatusRequest struct {
	ProductionStatus string `json:"uretimDurum" binding:"required,production_status"`
}

// UpdateNoteRequest replaces the operator note. A null note clears it.
type UpdateNoteRequest struct {
	Note *string `json:"not"`
}

// UpdatePhotoRequest sets the photo URL by hand
type UpdatePhotoRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// RefreshPhotosResponse reports a photo refresh
type RefreshPhotosResponse struct {
	Message string `json:"message"`
	Updated int    `json:"guncellenen"`
	Failed  int    `json:"hatali"`
	Total   int    `json:"toplam"`
}

func toRefreshPhotosResponse(r *apporder.RefreshResult) RefreshPhotosResponse {
	return RefreshPhotosResponse{
		Message: "Fotoğraf güncelleme tamamlandı",
		Updated: r.Updated,
		Failed:  r.Failed,
		Total:   r.Total,
	}
}

// PurgeResponse reports a cleanup
type PurgeResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
}

// StatusSummaryResponse is one row of the status report
type StatusSummaryResponse struct {
	Status        string  `json:"durum"`
	Count         int     `json:"sayi"`
	TotalQuantity int     `json:"toplam_miktar"`
	TotalPrice    float64 `json:"toplam_fiyat"`
}

func toStatusSummaryResponses(rows []order.StatusSummary) []StatusSummaryResponse {
	out := make([]StatusSummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, StatusSummaryResponse{
			Status:        string(r.Status),
			Count:         r.Count,
			TotalQuantity: r.TotalQuantity,
			TotalPrice:    r.TotalPrice.InexactFloat64(),
		})
	}
	return out
}
