package order

import "errors"

var (
	// ErrOrderLineNotFound is returned when no line has the requested id
	ErrOrderLineNotFound = errors.New("order: line not found")

	// ErrInvalidStatus is returned for a status outside the enumerated set
	ErrInvalidStatus = errors.New("order: invalid status")

	// ErrInvalidProductionStatus is returned for a production status outside the enumerated set
	ErrInvalidProductionStatus = errors.New("order: invalid production status")

	// ErrMissingRequiredField is returned when customer name, product name or order number is empty
	ErrMissingRequiredField = errors.New("order: missing required field")

	// ErrInvalidDateRange is returned when a report bound cannot be parsed
	ErrInvalidDateRange = errors.New("order: invalid date range")
)
