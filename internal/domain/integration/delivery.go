package integration

import (
	"context"
	"fmt"
	"time"
)

// DefaultDeliveryTTL is how long a webhook delivery key is remembered
const DefaultDeliveryTTL = 24 * time.Hour

// DeliveryStore remembers processed webhook deliveries so a redelivered
// notification is not processed twice.
type DeliveryStore interface {
	// MarkProcessed records key for ttl.
	// Returns true if the key was newly recorded, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key so a failed delivery can be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// WebhookDeliveryKey returns the idempotency key of an order notification
func WebhookDeliveryKey(platform PlatformCode, orderNo string) string {
	return fmt.Sprintf("%s:webhook:%s", platform, orderNo)
}
