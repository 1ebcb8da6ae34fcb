package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusSummary aggregates the lines in one primary status
type StatusSummary struct {
	Status        Status
	Count         int
	TotalQuantity int
	TotalPrice    decimal.Decimal
}

// DateRange bounds a report by order date. Nil bounds are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// NewDateRange parses optional from/to bounds. From starts at the beginning of
// its day; To is inclusive through 23:59:59.999 of its day.
func NewDateRange(from, to string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.Local
	}
	var r DateRange
	if from != "" {
		t, err := parseBound(from, loc)
		if err != nil {
			return DateRange{}, err
		}
		r.From = &t
	}
	if to != "" {
		t, err := parseBound(to, loc)
		if err != nil {
			return DateRange{}, err
		}
		end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
		r.To = &end
	}
	return r, nil
}

func parseBound(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	if t, ok := ParseOrderDate(raw); ok {
		return t.In(loc), nil
	}
	return time.Time{}, ErrInvalidDateRange
}

// IsOpen returns true when neither bound is set
func (r DateRange) IsOpen() bool {
	return r.From == nil && r.To == nil
}

// Contains reports whether the line's order date falls inside the range.
// With any bound set, lines without a parseable order date are excluded.
func (r DateRange) Contains(l *OrderLine) bool {
	if r.IsOpen() {
		return true
	}
	t, ok := l.OrderTime()
	if !ok {
		return false
	}
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// BuildStatusReport groups lines by primary status. Every enumerated status
// appears in the result, in workflow order, even with zero lines.
func BuildStatusReport(lines []*OrderLine, r DateRange) []StatusSummary {
	statuses := AllStatuses()
	index := make(map[Status]int, len(statuses))
	report := make([]StatusSummary, len(statuses))
	for i, s := range statuses {
		index[s] = i
		report[i] = StatusSummary{Status: s, TotalPrice: decimal.Zero}
	}

	for _, l := range lines {
		if l == nil || !r.Contains(l) {
			continue
		}
		i, ok := index[l.Status]
		if !ok {
			continue
		}
		report[i].Count++
		report[i].TotalQuantity += l.Quantity
		report[i].TotalPrice = report[i].TotalPrice.Add(l.LineTotal())
	}
	return report
}
