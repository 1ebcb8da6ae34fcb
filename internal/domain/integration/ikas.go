package integration

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ordertrack/backend/internal/domain/order"
)

// CanonicalizeIkas maps an Ikas GraphQL order. The order date is stored as
// epoch milliseconds in decimal digits.
func CanonicalizeIkas(raw Payload, opts CanonicalizeOptions) *CanonicalOrder {
	now := opts.now()

	orderNo := firstNonEmpty(raw.String("orderNumber"), raw.String("id"))
	if orderNo == "" {
		orderNo = "IKAS-" + strconv.FormatInt(now.UnixMilli(), 10)
	}

	customer := raw.Object("customer")
	billing := raw.Object("billingAddress")
	shipping := raw.Object("shippingAddress")

	out := &CanonicalOrder{
		Platform:  PlatformCodeIkas,
		OrderNo:   orderNo,
		OrderDate: ikasOrderDate(raw, now.UnixMilli()),
		CustomerName: firstNonEmpty(
			joinNonEmpty(" ", customer.String("firstName"), customer.String("lastName")),
			joinNonEmpty(" ", billing.String("firstName"), billing.String("lastName")),
			UnknownCustomer,
		),
		CustomerPhone: firstNonEmpty(
			customer.String("phone"),
			shipping.String("phone"),
			billing.String("phone"),
		),
		RawData: raw.JSON(),
	}

	addr := shipping
	if addr == nil {
		addr = billing
	}
	if addr != nil {
		out.CustomerAddress = joinNonEmpty(" ",
			addr.String("addressLine1"),
			addr.String("addressLine2"),
			addr.Object("district").String("name"),
			addr.Object("city").String("name"),
			addr.Object("state").String("name"),
			addr.Object("country").String("name"),
			addr.String("postalCode"),
		)
	}

	for _, item := range raw.Objects("orderLineItems") {
		variant := item.Object("variant")
		name := firstNonEmpty(variant.String("name"), UnknownProduct)
		if !IsIkasGold(name) {
			out.Filtered++
			continue
		}

		code := IkasProductCode(variant, name)
		c := LineCandidate{
			ProductName:     name,
			ProductCode:     code,
			Quantity:        item.Int("quantity"),
			Price:           decimal.Zero,
			Personalization: ikasPersonalization(item.Objects("options")),
			Lookup:          &PhotoLookup{Code: firstNonEmpty(code, name), Name: name},
		}
		if c.Quantity <= 0 {
			c.Quantity = 1
		}
		if p, ok := item.Decimal("finalPrice"); ok {
			c.Price = p
		} else if p, ok := item.Decimal("price"); ok {
			c.Price = p
		}
		out.Lines = append(out.Lines, c)
	}
	return out
}

// IkasProductCode derives a line's code: variant SKU, then the first barcode,
// then a model-code token in the product name.
func IkasProductCode(variant Payload, name string) string {
	if sku := variant.String("sku"); sku != "" {
		return sku
	}
	if barcodes := variant.Strings("barcodeList"); len(barcodes) > 0 {
		return barcodes[0]
	}
	return ExtractModelCode(name)
}

func ikasOrderDate(raw Payload, nowMillis int64) string {
	v := raw.String("orderedAt")
	if v == "" {
		return strconv.FormatInt(nowMillis, 10)
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return v
	}
	if d, err := decimal.NewFromString(v); err == nil {
		return d.Truncate(0).String()
	}
	if t, ok := order.ParseOrderDate(v); ok {
		return strconv.FormatInt(t.UnixMilli(), 10)
	}
	return strconv.FormatInt(nowMillis, 10)
}

// ikasPersonalization flattens line options into "name: value" pairs
func ikasPersonalization(options []Payload) string {
	parts := make([]string, 0, len(options))
	for _, opt := range options {
		name := strings.TrimSpace(opt.String("name"))
		value := strings.TrimSpace(opt.String("value"))
		switch {
		case name != "" && value != "":
			parts = append(parts, name+": "+value)
		case value != "":
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, ", ")
}
