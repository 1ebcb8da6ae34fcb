// Package ordersync pulls marketplace orders into the order store without
// creating duplicates.
package ordersync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ordertrack/backend/internal/domain/integration"
	"github.com/ordertrack/backend/internal/domain/order"
)

const (
	// DefaultWebhookTimeout bounds the asynchronous processing of one webhook
	DefaultWebhookTimeout = 2 * time.Minute
	// DefaultHistorySize is the number of sync runs kept for inspection
	DefaultHistorySize = 100
)

// PhotoResolver finds a photo URL for a product code
type PhotoResolver interface {
	Resolve(ctx context.Context, code, name string) string
}

// Service runs sync passes for the registered connectors.
// One pass per connector runs at a time; webhook processing for a platform
// shares that platform's lock.
type Service struct {
	repo       order.Repository
	connectors map[integration.PlatformCode]integration.Connector
	photos     PhotoResolver
	deliveries integration.DeliveryStore
	logger     *zap.Logger
	now        func() time.Time

	deliveryTTL    time.Duration
	webhookTimeout time.Duration

	locks map[integration.PlatformCode]*sync.Mutex

	historyMu  sync.RWMutex
	history    []integration.SyncResult
	maxHistory int

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPhotoResolver sets the resolver used for lines without a photo
func WithPhotoResolver(r PhotoResolver) Option {
	return func(s *Service) {
		s.photos = r
	}
}

// WithDeliveryStore enables webhook redelivery detection
func WithDeliveryStore(store integration.DeliveryStore, ttl time.Duration) Option {
	return func(s *Service) {
		s.deliveries = store
		if ttl > 0 {
			s.deliveryTTL = ttl
		}
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithHistorySize sets how many runs are kept
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

// WithWebhookTimeout bounds asynchronous webhook processing
func WithWebhookTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.webhookTimeout = d
		}
	}
}

// NewService creates a sync service over repo for the given connectors
func NewService(repo order.Repository, connectors []integration.Connector, opts ...Option) *Service {
	s := &Service{
		repo:           repo,
		connectors:     make(map[integration.PlatformCode]integration.Connector, len(connectors)),
		logger:         zap.NewNop(),
		now:            time.Now,
		deliveryTTL:    integration.DefaultDeliveryTTL,
		webhookTimeout: DefaultWebhookTimeout,
		locks:          make(map[integration.PlatformCode]*sync.Mutex, len(connectors)),
		maxHistory:     DefaultHistorySize,
	}
	for _, c := range connectors {
		s.connectors[c.Platform()] = c
		s.locks[c.Platform()] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = make([]integration.SyncResult, 0, s.maxHistory)
	s.baseCtx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Platforms returns the registered platform codes
func (s *Service) Platforms() []integration.PlatformCode {
	out := make([]integration.PlatformCode, 0, len(s.connectors))
	for _, code := range integration.AllPlatformCodes() {
		if _, ok := s.connectors[code]; ok {
			out = append(out, code)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Poll path
// ---------------------------------------------------------------------------

// Sync runs one pass for platform. Connector and store failures are reported
// through the result's outcome; the error is reserved for unknown platforms.
func (s *Service) Sync(ctx context.Context, platform integration.PlatformCode, trigger integration.SyncTrigger) (*integration.SyncResult, error) {
	connector, ok := s.connectors[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrUnsupportedPlatform, platform)
	}

	lock := s.locks[platform]
	lock.Lock()
	defer lock.Unlock()

	result := s.newResult(platform, trigger)
	defer s.finish(result)

	if !connector.IsConfigured() {
		result.Skip("credentials not configured")
		return result, nil
	}

	raws, err := connector.FetchOrders(ctx)
	if err != nil {
		if errors.Is(err, integration.ErrPlatformNotConfigured) {
			result.Skip("credentials not configured")
		} else {
			result.Fail(err)
		}
		return result, nil
	}
	result.Fetched = len(raws)
	if len(raws) == 0 {
		return result, nil
	}

	existing, err := s.repo.OrderNumbers(ctx)
	if err != nil {
		result.Fail(fmt.Errorf("read order numbers: %w", err))
		return result, nil
	}

	opts := integration.CanonicalizeOptions{Now: s.now(), Placeholder: true}
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			result.Fail(err)
			return result, nil
		}
		s.ingest(ctx, platform, raw, opts, existing, result)
	}
	return result, nil
}

// ingest stores the lines of one raw order. Cancellation is handled before the
// duplicate check so that a stored order that was later cancelled is removed.
// existing is the pre-run snapshot and is never updated here: marketplaces
// split one order into several packages sharing its number, and every package
// of a new order has to be stored.
func (s *Service) ingest(
	ctx context.Context,
	platform integration.PlatformCode,
	raw integration.Payload,
	opts integration.CanonicalizeOptions,
	existing map[string]struct{},
	result *integration.SyncResult,
) {
	co, err := integration.Canonicalize(platform, raw, opts)
	if err != nil {
		result.Failed++
		s.logger.Error("Failed to canonicalize order", zap.String("platform", platform.String()), zap.Error(err))
		return
	}

	if co.Cancelled {
		n, err := s.repo.DeleteByOrderNo(ctx, co.OrderNo)
		if err != nil {
			result.Failed++
			s.logger.Error("Failed to delete cancelled order",
				zap.String("platform", platform.String()),
				zap.String("order_no", co.OrderNo),
				zap.Error(err),
			)
			return
		}
		result.Deleted += n
		if n > 0 {
			s.logger.Info("Removed cancelled order",
				zap.String("platform", platform.String()),
				zap.String("order_no", co.OrderNo),
				zap.Int("lines", n),
			)
		}
		return
	}

	if _, dup := existing[co.OrderNo]; dup {
		result.Skipped++
		return
	}

	result.Filtered += co.Filtered
	created := 0
	for _, c := range co.Lines {
		photo := ""
		if c.PhotoURL == "" && c.Lookup != nil && s.photos != nil {
			photo = s.photos.Resolve(ctx, c.Lookup.Code, c.Lookup.Name)
		}
		if _, err := s.repo.Create(ctx, co.NewOrderLine(c, photo)); err != nil {
			result.Failed++
			s.logger.Error("Failed to store order line",
				zap.String("platform", platform.String()),
				zap.String("order_no", co.OrderNo),
				zap.String("product", c.ProductName),
				zap.Error(err),
			)
			continue
		}
		created++
	}
	result.Created += created
}

// ---------------------------------------------------------------------------
// Webhook path
// ---------------------------------------------------------------------------

// WebhookReceipt acknowledges a webhook delivery
type WebhookReceipt struct {
	OrderNo   string `json:"order_no,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// HandleTrendyolWebhook validates a Trendyol notification and schedules its
// processing in the background. Malformed bodies return ErrWebhookMalformed
// and unhandled event types ErrWebhookIgnored.
func (s *Service) HandleTrendyolWebhook(ctx context.Context, body []byte) (*WebhookReceipt, error) {
	const platform = integration.PlatformCodeTrendyol
	if _, ok := s.connectors[platform]; !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrUnsupportedPlatform, platform)
	}

	payload, err := integration.ParseTrendyolWebhook(body)
	if err != nil {
		return nil, err
	}

	receipt := &WebhookReceipt{OrderNo: integration.TrendyolOrderNumber(payload)}
	key := ""
	if s.deliveries != nil && receipt.OrderNo != "" {
		key = integration.WebhookDeliveryKey(platform, receipt.OrderNo)
		isNew, err := s.deliveries.MarkProcessed(ctx, key, s.deliveryTTL)
		switch {
		case err != nil:
			s.logger.Warn("Delivery store unavailable, processing without redelivery check",
				zap.String("order_no", receipt.OrderNo),
				zap.Error(err),
			)
			key = ""
		case !isNew:
			receipt.Duplicate = true
			s.logger.Info("Ignoring redelivered webhook", zap.String("order_no", receipt.OrderNo))
			return receipt, nil
		}
	}

	s.wg.Add(1)
	go s.processWebhook(payload, key)
	return receipt, nil
}

func (s *Service) processWebhook(payload integration.Payload, key string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.baseCtx, s.webhookTimeout)
	defer cancel()

	var result *integration.SyncResult
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Webhook processing panicked", zap.Any("panic", r))
			result = nil
		}
		if key != "" && (result == nil || result.Outcome == integration.SyncOutcomeFailed || result.Failed > 0) {
			if err := s.deliveries.Release(context.Background(), key); err != nil {
				s.logger.Warn("Failed to release webhook delivery", zap.String("key", key), zap.Error(err))
			}
		}
	}()

	result = s.ProcessOrder(ctx, integration.PlatformCodeTrendyol, payload, integration.SyncTriggerWebhook)
}

// ProcessOrder ingests a single pushed order through the same path as a poll.
// Orders without lines are skipped rather than stored as placeholders.
func (s *Service) ProcessOrder(ctx context.Context, platform integration.PlatformCode, raw integration.Payload, trigger integration.SyncTrigger) *integration.SyncResult {
	lock, ok := s.locks[platform]
	result := s.newResult(platform, trigger)
	if !ok {
		result.Fail(fmt.Errorf("%w: %s", integration.ErrUnsupportedPlatform, platform))
		s.finish(result)
		return result
	}

	lock.Lock()
	defer lock.Unlock()
	defer s.finish(result)

	result.Fetched = 1
	existing, err := s.repo.OrderNumbers(ctx)
	if err != nil {
		result.Fail(fmt.Errorf("read order numbers: %w", err))
		return result
	}
	s.ingest(ctx, platform, raw, integration.CanonicalizeOptions{Now: s.now()}, existing, result)
	return result
}

// Shutdown waits for in-flight webhook processing. When ctx expires first the
// remaining work is cancelled.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// ---------------------------------------------------------------------------
// Run bookkeeping
// ---------------------------------------------------------------------------

func (s *Service) newResult(platform integration.PlatformCode, trigger integration.SyncTrigger) *integration.SyncResult {
	return &integration.SyncResult{
		RunID:     uuid.NewString(),
		Platform:  platform,
		Trigger:   trigger,
		StartedAt: s.now(),
	}
}

func (s *Service) finish(result *integration.SyncResult) {
	result.Finish(s.now())

	fields := []zap.Field{
		zap.String("run_id", result.RunID),
		zap.String("platform", result.Platform.String()),
		zap.String("trigger", string(result.Trigger)),
		zap.String("outcome", result.Outcome.String()),
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created),
		zap.Int("filtered", result.Filtered),
		zap.Int("skipped", result.Skipped),
		zap.Int("deleted", result.Deleted),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration()),
	}
	switch result.Outcome {
	case integration.SyncOutcomeFailed:
		s.logger.Error("Order sync failed", append(fields, zap.String("reason", result.Reason))...)
	case integration.SyncOutcomeSkipped:
		s.logger.Warn("Order sync skipped", append(fields, zap.String("reason", result.Reason))...)
	default:
		s.logger.Info("Order sync completed", fields...)
	}

	s.addToHistory(*result)
}

// addToHistory adds a finished run to the front of the history
func (s *Service) addToHistory(result integration.SyncResult) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]integration.SyncResult{result}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// History returns up to limit recent runs, newest first
func (s *Service) History(limit int) []integration.SyncResult {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	out := make([]integration.SyncResult, limit)
	copy(out, s.history[:limit])
	return out
}
