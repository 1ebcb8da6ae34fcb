package order

import (
	"context"
	"time"
)

// Filter narrows FindAll results
type Filter struct {
	// Status keeps only lines in this primary status when set
	Status Status
}

// Repository is the durable order line collection.
// Implementations reload their backing state before every operation.
type Repository interface {
	// Create assigns the next id and both timestamps, then persists the line
	Create(ctx context.Context, line *OrderLine) (*OrderLine, error)
	// Update applies mutate to the line with the given id and re-stamps UpdatedAt.
	// Returns ErrOrderLineNotFound for unknown ids.
	Update(ctx context.Context, id int64, mutate func(*OrderLine) error) (*OrderLine, error)
	// FindAll returns lines newest first
	FindAll(ctx context.Context, filter Filter) ([]*OrderLine, error)
	FindByID(ctx context.Context, id int64) (*OrderLine, error)
	Delete(ctx context.Context, id int64) error
	// DeleteByOrderNo removes every line of an order and returns how many were removed
	DeleteByOrderNo(ctx context.Context, orderNo string) (int, error)
	// PurgeOlderThan removes lines whose order date is before cutoff.
	// Lines with a missing or unparseable date are kept unless
	// useCreatedAt is set, in which case CreatedAt stands in for it.
	PurgeOlderThan(ctx context.Context, cutoff time.Time, useCreatedAt bool) (int, error)
	// PurgeAll removes every line and resets the id sequence
	PurgeAll(ctx context.Context) error
	// OrderNumbers returns the set of order numbers currently stored
	OrderNumbers(ctx context.Context) (map[string]struct{}, error)
}
