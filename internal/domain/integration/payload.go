package integration

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Payload is a decoded marketplace JSON object. Numbers may arrive as
// json.Number (decoders using UseNumber) or float64.
type Payload map[string]any

// String returns the field as text. Numbers are formatted without exponent;
// anything else yields "".
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	return scalarString(p[key])
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Object returns a nested object, nil when absent or of another type
func (p Payload) Object(key string) Payload {
	if p == nil {
		return nil
	}
	switch v := p[key].(type) {
	case map[string]any:
		return Payload(v)
	case Payload:
		return v
	default:
		return nil
	}
}

// Objects returns the object elements of an array field
func (p Payload) Objects(key string) []Payload {
	if p == nil {
		return nil
	}
	raw, ok := p[key].([]any)
	if !ok {
		if typed, ok := p[key].([]Payload); ok {
			return typed
		}
		return nil
	}
	out := make([]Payload, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Payload(m))
		}
	}
	return out
}

// Strings returns the string elements of an array field
func (p Payload) Strings(key string) []string {
	if p == nil {
		return nil
	}
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s := scalarString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Decimal returns a numeric field. Zero and missing values report false.
func (p Payload) Decimal(key string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(p.String(key))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}
	return d, true
}

// Int returns a whole-number field, 0 when missing or not numeric
func (p Payload) Int(key string) int {
	d, ok := p.Decimal(key)
	if !ok {
		return 0
	}
	return int(d.IntPart())
}

// JSON serializes the payload for audit storage
func (p Payload) JSON() string {
	if p == nil {
		return ""
	}
	b, err := json.Marshal(map[string]any(p))
	if err != nil {
		return ""
	}
	return string(b)
}

// firstNonEmpty returns the first non-blank value
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// joinNonEmpty joins the non-blank values with sep
func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
