package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// isoMillis matches the timestamps written for orders without a date
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// TrendyolEventOrderCreated is the only webhook event that is processed
const TrendyolEventOrderCreated = "ORDER_CREATED"

var trendyolCancelledStatuses = map[string]struct{}{
	"Cancelled": {},
	"Canceled":  {},
	"Cancel":    {},
}

// trendyolPhotoFields are checked in order for a photo URL on a line
var trendyolPhotoFields = []string{
	"productImageUrl", "productImage", "imageUrl", "image",
	"productMainImage", "productMainImageUrl",
}

// TrendyolOrderNumber returns the marketplace order number, or "" when the
// payload carries neither orderNumber nor orderId
func TrendyolOrderNumber(raw Payload) string {
	return firstNonEmpty(raw.String("orderNumber"), raw.String("orderId"))
}

// CanonicalizeTrendyol maps a Trendyol order
func CanonicalizeTrendyol(raw Payload, opts CanonicalizeOptions) *CanonicalOrder {
	now := opts.now()

	orderNo := TrendyolOrderNumber(raw)
	if orderNo == "" {
		orderNo = "TY-" + strconv.FormatInt(now.UnixMilli(), 10)
	}

	orderDate := firstNonEmpty(raw.String("orderDate"), raw.String("orderDateFormatted"))
	if orderDate == "" {
		orderDate = now.UTC().Format(isoMillis)
	}

	_, cancelled := trendyolCancelledStatuses[raw.String("status")]

	out := &CanonicalOrder{
		Platform:     PlatformCodeTrendyol,
		OrderNo:      orderNo,
		OrderDate:    orderDate,
		CustomerName: firstNonEmpty(
			joinNonEmpty(" ", raw.String("customerFirstName"), raw.String("customerLastName")),
			UnknownCustomer,
		),
		CustomerPhone: raw.String("customerPhoneNumber"),
		Cancelled:     cancelled,
		RawData:       raw.JSON(),
	}
	if addr := raw.Object("shippingAddress"); addr != nil {
		out.CustomerAddress = joinNonEmpty(" ",
			addr.String("address1"),
			addr.String("address2"),
			addr.String("district"),
			addr.String("city"),
			addr.String("postalCode"),
			addr.String("country"),
		)
	}
	if cancelled {
		return out
	}

	lines := raw.Objects("lines")
	if len(lines) == 0 {
		if opts.Placeholder {
			out.Lines = append(out.Lines, LineCandidate{
				ProductName: PlaceholderProduct,
				Quantity:    1,
				Price:       decimal.Zero,
				Placeholder: true,
			})
		}
		return out
	}

	for _, line := range lines {
		name := firstNonEmpty(line.String("productName"), line.String("barcode"), UnknownProduct)
		if !IsTrendyolGold(name) {
			out.Filtered++
			continue
		}
		out.Lines = append(out.Lines, trendyolLine(line, name))
	}
	return out
}

func trendyolLine(line Payload, name string) LineCandidate {
	product := line.Object("product")

	code := TrendyolModelCode(line, name)

	photo := ""
	for _, field := range trendyolPhotoFields {
		if photo = line.String(field); photo != "" {
			break
		}
	}
	if photo == "" {
		photo = firstNonEmpty(product.String("imageUrl"), product.String("mainImage"))
	}

	c := LineCandidate{
		ProductName: name,
		ProductCode: code,
		PhotoURL:    photo,
		Quantity:    line.Int("quantity"),
		Price:       decimal.Zero,
	}
	if c.Quantity <= 0 {
		c.Quantity = 1
	}
	if p, ok := line.Decimal("salePrice"); ok {
		c.Price = p
	} else if p, ok := line.Decimal("price"); ok {
		c.Price = p
	}
	if photo == "" && code != "" {
		c.Lookup = &PhotoLookup{Code: code, Name: name}
	}
	return c
}

// TrendyolModelCode derives a line's model code: explicit model code fields
// first, then a token in the product name, then the product/barcode/sku fields.
func TrendyolModelCode(line Payload, name string) string {
	product := line.Object("product")
	if code := firstNonEmpty(line.String("modelCode"), product.String("modelCode")); code != "" {
		return code
	}
	if code := ExtractModelCode(name); code != "" {
		return code
	}
	return firstNonEmpty(
		line.String("productCode"),
		product.String("code"),
		line.String("barcode"),
		product.String("barcode"),
		line.String("sku"),
		product.String("sku"),
	)
}

// ParseTrendyolWebhook decodes a webhook delivery and returns the order it
// carries. Events other than ORDER_CREATED return ErrWebhookIgnored.
func ParseTrendyolWebhook(body []byte) (Payload, error) {
	var envelope map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookMalformed, err)
	}
	p := Payload(envelope)

	event := firstNonEmpty(p.String("type"), p.String("eventType"))
	if event != TrendyolEventOrderCreated {
		return nil, fmt.Errorf("%w: %q", ErrWebhookIgnored, event)
	}
	if o := p.Object("order"); o != nil {
		return o, nil
	}
	return p, nil
}
