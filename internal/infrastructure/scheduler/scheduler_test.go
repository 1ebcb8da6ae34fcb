package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap/zaptest"

	"github.com/ordertrack/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func newTestScheduler(t *testing.T, config Config) *Scheduler {
	t.Helper()
	s, err := New(config, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func countingJob(name string, delay, interval time.Duration, counter *atomic.Int64) Job {
	return Job{
		Name:         name,
		InitialDelay: delay,
		Interval:     interval,
		Run: func(ctx context.Context) error {
			counter.Inc()
			return nil
		},
	}
}

// MockOrderSyncer is a mock implementation of OrderSyncer
type MockOrderSyncer struct {
	mock.Mock
}

func (m *MockOrderSyncer) Sync(ctx context.Context, platform integration.PlatformCode, trigger integration.SyncTrigger) (*integration.SyncResult, error) {
	args := m.Called(ctx, platform, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncResult), args.Error(1)
}

// MockRetentionPurger is a mock implementation of RetentionPurger
type MockRetentionPurger struct {
	mock.Mock
}

func (m *MockRetentionPurger) PurgeOlderThan(ctx context.Context, days int, useCreatedAt bool) (int, error) {
	args := m.Called(ctx, days, useCreatedAt)
	return args.Int(0), args.Error(1)
}

// ---------------------------------------------------------------------------
// Config and registration
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.JobTimeout = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.HistorySize = 0
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestScheduler_Register(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	counter := atomic.NewInt64(0)

	require.NoError(t, s.Register(countingJob("a", 0, time.Hour, counter)))
	assert.ErrorIs(t, s.Register(countingJob("a", 0, time.Hour, counter)), ErrJobAlreadyRegistered)
	assert.ErrorIs(t, s.Register(countingJob("b", 0, 0, counter)), ErrInvalidConfig)
	assert.ErrorIs(t, s.Register(Job{Name: "c", Interval: time.Hour}), ErrInvalidConfig)

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Register(countingJob("d", 0, time.Hour, counter)), ErrSchedulerRunning)
}

// ---------------------------------------------------------------------------
// Running
// ---------------------------------------------------------------------------

func TestScheduler_RunsOnInterval(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	immediate := atomic.NewInt64(0)
	delayed := atomic.NewInt64(0)

	require.NoError(t, s.Register(countingJob("immediate", 0, 10*time.Millisecond, immediate)))
	require.NoError(t, s.Register(countingJob("delayed", time.Hour, 10*time.Millisecond, delayed)))
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return immediate.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), delayed.Load())

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())

	stopped := immediate.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, immediate.Load())
}

func TestScheduler_StopCancelsInFlightRun(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	started := make(chan struct{})
	cancelled := atomic.NewBool(false)

	require.NoError(t, s.Register(Job{
		Name:     "blocking",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		},
	}))
	require.NoError(t, s.Start(context.Background()))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.True(t, cancelled.Load())

	history := s.History(0)
	require.Len(t, history, 1)
	assert.Equal(t, JobStatusFailed, history[0].Status)
}

func TestScheduler_RecoversPanics(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	require.NoError(t, s.Register(Job{
		Name:         "panicky",
		InitialDelay: time.Hour,
		Interval:     time.Hour,
		Run: func(ctx context.Context) error {
			panic("boom")
		},
	}))
	require.NoError(t, s.Start(context.Background()))

	run, err := s.Trigger(context.Background(), "panicky")
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, run.Status)
	assert.Contains(t, run.Error, "boom")
	assert.True(t, run.Manual)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.TotalRuns)
	assert.Equal(t, int64(1), stats.FailedRuns)
	require.Len(t, stats.Jobs, 1)
	assert.Equal(t, int64(1), stats.Jobs[0].Failures)
}

func TestScheduler_Trigger(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	counter := atomic.NewInt64(0)
	require.NoError(t, s.Register(countingJob("manual", time.Hour, time.Hour, counter)))

	_, err := s.Trigger(context.Background(), "manual")
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))

	run, err := s.Trigger(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, JobStatusSuccess, run.Status)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, int64(1), counter.Load())

	_, err = s.Trigger(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	s := newTestScheduler(t, DefaultConfig())
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, s.Register(Job{
		Name:         "slow",
		InitialDelay: time.Hour,
		Interval:     time.Hour,
		Run: func(ctx context.Context) error {
			started <- struct{}{}
			<-release
			return nil
		},
	}))
	require.NoError(t, s.Start(context.Background()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Trigger(context.Background(), "slow")
	}()
	<-started

	_, err := s.Trigger(context.Background(), "slow")
	assert.ErrorIs(t, err, ErrJobInProgress)

	close(release)
	<-done
}

func TestScheduler_HistoryIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistorySize = 2
	s := newTestScheduler(t, cfg)
	counter := atomic.NewInt64(0)
	require.NoError(t, s.Register(countingJob("x", time.Hour, time.Hour, counter)))
	require.NoError(t, s.Start(context.Background()))

	var last *JobRun
	for range 3 {
		run, err := s.Trigger(context.Background(), "x")
		require.NoError(t, err)
		last = run
	}

	history := s.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, last.ID, history[0].ID)
	assert.Len(t, s.History(1), 1)
}

// ---------------------------------------------------------------------------
// Jobs
// ---------------------------------------------------------------------------

func TestNewOrderSyncJob(t *testing.T) {
	ctx := context.Background()

	t.Run("successful pass", func(t *testing.T) {
		syncer := new(MockOrderSyncer)
		syncer.On("Sync", mock.Anything, integration.PlatformCodeTrendyol, integration.SyncTriggerSchedule).
			Return(&integration.SyncResult{Outcome: integration.SyncOutcomeSuccess}, nil)

		job := NewOrderSyncJob(syncer, integration.PlatformCodeTrendyol, 2*time.Second, 6*time.Hour)
		assert.Equal(t, "order-sync:trendyol", job.Name)
		assert.Equal(t, 2*time.Second, job.InitialDelay)
		assert.Equal(t, 6*time.Hour, job.Interval)
		assert.NoError(t, job.Run(ctx))
		syncer.AssertExpectations(t)
	})

	t.Run("skipped pass is not an error", func(t *testing.T) {
		syncer := new(MockOrderSyncer)
		syncer.On("Sync", mock.Anything, integration.PlatformCodeIkas, integration.SyncTriggerSchedule).
			Return(&integration.SyncResult{Outcome: integration.SyncOutcomeSkipped}, nil)

		job := NewOrderSyncJob(syncer, integration.PlatformCodeIkas, 0, 30*time.Minute)
		assert.NoError(t, job.Run(ctx))
	})

	t.Run("failed pass", func(t *testing.T) {
		syncer := new(MockOrderSyncer)
		syncer.On("Sync", mock.Anything, integration.PlatformCodeIkas, integration.SyncTriggerSchedule).
			Return(&integration.SyncResult{Outcome: integration.SyncOutcomeFailed, Reason: "rate limited"}, nil)

		err := NewOrderSyncJob(syncer, integration.PlatformCodeIkas, 0, time.Minute).Run(ctx)
		assert.ErrorIs(t, err, ErrOrderSyncFailed)
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("unknown platform", func(t *testing.T) {
		syncer := new(MockOrderSyncer)
		syncer.On("Sync", mock.Anything, integration.PlatformCodeIkas, integration.SyncTriggerSchedule).
			Return(nil, integration.ErrUnsupportedPlatform)

		err := NewOrderSyncJob(syncer, integration.PlatformCodeIkas, 0, time.Minute).Run(ctx)
		assert.ErrorIs(t, err, integration.ErrUnsupportedPlatform)
	})
}

func TestNewRetentionJob(t *testing.T) {
	purger := new(MockRetentionPurger)
	purger.On("PurgeOlderThan", mock.Anything, 30, true).Return(4, nil).Once()
	purger.On("PurgeOlderThan", mock.Anything, 30, true).Return(0, errors.New("disk")).Once()

	job := NewRetentionJob(purger, 30, 24*time.Hour)
	assert.Equal(t, RetentionJobName, job.Name)
	assert.NoError(t, job.Run(context.Background()))
	assert.Error(t, job.Run(context.Background()))
	purger.AssertExpectations(t)
}
