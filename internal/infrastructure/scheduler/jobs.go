package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ordertrack/backend/internal/domain/integration"
)

// OrderSyncer runs one sync pass for a platform
type OrderSyncer interface {
	Sync(ctx context.Context, platform integration.PlatformCode, trigger integration.SyncTrigger) (*integration.SyncResult, error)
}

// RetentionPurger removes lines older than a number of days
type RetentionPurger interface {
	PurgeOlderThan(ctx context.Context, days int, useCreatedAt bool) (int, error)
}

// OrderSyncJobName returns the job name used for a platform's sync
func OrderSyncJobName(platform integration.PlatformCode) string {
	return "order-sync:" + platform.String()
}

// RetentionJobName is the name of the retention purge job
const RetentionJobName = "retention-purge"

// NewOrderSyncJob builds the periodic sync job for platform. A failed or
// rejected pass is reported as a failed run; skipped passes succeed.
func NewOrderSyncJob(syncer OrderSyncer, platform integration.PlatformCode, initialDelay, interval time.Duration) Job {
	return Job{
		Name:         OrderSyncJobName(platform),
		InitialDelay: initialDelay,
		Interval:     interval,
		Run: func(ctx context.Context) error {
			result, err := syncer.Sync(ctx, platform, integration.SyncTriggerSchedule)
			if err != nil {
				return err
			}
			if result.Outcome == integration.SyncOutcomeFailed {
				return fmt.Errorf("%w: %s: %s", ErrOrderSyncFailed, platform, result.Reason)
			}
			return nil
		},
	}
}

// NewRetentionJob builds the job that purges lines older than days.
// Lines without a usable order date are judged by their creation time.
func NewRetentionJob(purger RetentionPurger, days int, interval time.Duration) Job {
	return Job{
		Name:     RetentionJobName,
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := purger.PurgeOlderThan(ctx, days, true)
			return err
		},
	}
}
