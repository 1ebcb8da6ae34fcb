// Package order holds the operator-facing use cases over stored order lines.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ordertrack/backend/internal/domain/integration"
	"github.com/ordertrack/backend/internal/domain/order"
)

const (
	// DefaultRefreshLimit caps how many lines a photo refresh touches
	DefaultRefreshLimit = 100
	// DefaultPurgeDays is the retention used when no day count is given
	DefaultPurgeDays = 1
)

// ErrInvalidPurgeDays is returned for a non-positive retention
var ErrInvalidPurgeDays = errors.New("order: purge days must be positive")

// PhotoSource resolves product photos in bulk
type PhotoSource interface {
	Clear()
	ResolveBatch(ctx context.Context, lookups []integration.PhotoLookup) map[string]string
}

// Service implements the order line use cases
type Service struct {
	repo     order.Repository
	photos   PhotoSource
	logger   *zap.Logger
	now      func() time.Time
	location *time.Location
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPhotoSource enables photo refreshes
func WithPhotoSource(p PhotoSource) Option {
	return func(s *Service) {
		s.photos = p
	}
}

// WithClock sets the time source used for retention cutoffs
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the zone report bounds are interpreted in
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewService creates a Service over repo
func NewService(repo order.Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		logger:   zap.NewNop(),
		now:      time.Now,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Lines
// ---------------------------------------------------------------------------

// CreateInput carries the fields of a manually entered line
type CreateInput struct {
	OrderNo          string
	OrderDate        string
	Platform         order.Platform
	CustomerName     string
	CustomerPhone    string
	CustomerAddress  string
	ProductName      string
	ProductCode      string
	PhotoURL         string
	Quantity         int
	Price            decimal.Decimal
	Status           order.Status
	ProductionStatus order.ProductionStatus
	Note             string
	Personalization  string
}

// Create validates and stores a new line
func (s *Service) Create(ctx context.Context, in CreateInput) (*order.OrderLine, error) {
	line := &order.OrderLine{
		OrderNo:          strings.TrimSpace(in.OrderNo),
		OrderDate:        in.OrderDate,
		Platform:         in.Platform,
		CustomerName:     strings.TrimSpace(in.CustomerName),
		CustomerPhone:    in.CustomerPhone,
		CustomerAddress:  in.CustomerAddress,
		ProductName:      strings.TrimSpace(in.ProductName),
		ProductCode:      in.ProductCode,
		PhotoURL:         in.PhotoURL,
		Quantity:         in.Quantity,
		Price:            in.Price,
		Status:           in.Status,
		ProductionStatus: in.ProductionStatus,
		Note:             in.Note,
		Personalization:  in.Personalization,
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	if line.OrderDate == "" {
		line.OrderDate = s.now().UTC().Format(time.RFC3339Nano)
	}

	created, err := s.repo.Create(ctx, line)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order line created",
		zap.Int64("id", created.ID),
		zap.String("order_no", created.OrderNo),
	)
	return created, nil
}

// List returns lines newest first, optionally narrowed to one status
func (s *Service) List(ctx context.Context, status string) ([]*order.OrderLine, error) {
	filter := order.Filter{}
	if status != "" {
		st, err := order.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	return s.repo.FindAll(ctx, filter)
}

// Get returns one line
func (s *Service) Get(ctx context.Context, id int64) (*order.OrderLine, error) {
	return s.repo.FindByID(ctx, id)
}

// SetStatus moves a line to status
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (*order.OrderLine, error) {
	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, func(l *order.OrderLine) error {
		return l.SetStatus(st)
	})
}

// SetProductionStatus sets a line's manufacturing sub-status
func (s *Service) SetProductionStatus(ctx context.Context, id int64, status string) (*order.OrderLine, error) {
	ps, err := order.ParseProductionStatus(status)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, func(l *order.OrderLine) error {
		return l.SetProductionStatus(ps)
	})
}

// SetNote replaces a line's operator note
func (s *Service) SetNote(ctx context.Context, id int64, note string) (*order.OrderLine, error) {
	return s.repo.Update(ctx, id, func(l *order.OrderLine) error {
		l.SetNote(note)
		return nil
	})
}

// SetPhoto replaces a line's photo URL
func (s *Service) SetPhoto(ctx context.Context, id int64, url string) (*order.OrderLine, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("%w: url", order.ErrMissingRequiredField)
	}
	return s.repo.Update(ctx, id, func(l *order.OrderLine) error {
		l.SetPhoto(url)
		return nil
	})
}

// Delete removes one line
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Order line deleted", zap.Int64("id", id))
	return nil
}

// ---------------------------------------------------------------------------
// Retention
// ---------------------------------------------------------------------------

// PurgeOlderThan removes lines ordered more than days ago. With useCreatedAt
// set, lines without a usable order date are judged by their creation time.
func (s *Service) PurgeOlderThan(ctx context.Context, days int, useCreatedAt bool) (int, error) {
	if days <= 0 {
		return 0, ErrInvalidPurgeDays
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	n, err := s.repo.PurgeOlderThan(ctx, cutoff, useCreatedAt)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Purged old order lines",
		zap.Int("days", days),
		zap.Time("cutoff", cutoff),
		zap.Int("deleted", n),
	)
	return n, nil
}

// PurgeAll removes every line
func (s *Service) PurgeAll(ctx context.Context) error {
	if err := s.repo.PurgeAll(ctx); err != nil {
		return err
	}
	s.logger.Warn("All order lines purged")
	return nil
}

// ---------------------------------------------------------------------------
// Reporting
// ---------------------------------------------------------------------------

// Report summarizes lines per status. from and to are optional dates
// (YYYY-MM-DD or ISO-8601); a bad bound returns ErrInvalidDateRange.
func (s *Service) Report(ctx context.Context, from, to string) ([]order.StatusSummary, error) {
	r, err := order.NewDateRange(from, to, s.location)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.FindAll(ctx, order.Filter{})
	if err != nil {
		return nil, err
	}
	return order.BuildStatusReport(lines, r), nil
}

// ---------------------------------------------------------------------------
// Photos
// ---------------------------------------------------------------------------

// RefreshResult counts the lines touched by a photo refresh
type RefreshResult struct {
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// RefreshPhotos clears the photo cache and re-resolves photos for up to limit
// lines that carry a product code, newest first.
func (s *Service) RefreshPhotos(ctx context.Context, limit int) (*RefreshResult, error) {
	if limit <= 0 {
		limit = DefaultRefreshLimit
	}
	lines, err := s.repo.FindAll(ctx, order.Filter{})
	if err != nil {
		return nil, err
	}

	targets := make([]*order.OrderLine, 0, limit)
	for _, l := range lines {
		if len(targets) == limit {
			break
		}
		if l.ProductCode != "" {
			targets = append(targets, l)
		}
	}

	result := &RefreshResult{Total: len(targets)}
	if s.photos == nil {
		result.Failed = len(targets)
		return result, nil
	}

	s.photos.Clear()
	lookups := make([]integration.PhotoLookup, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	for _, l := range targets {
		if _, ok := seen[l.ProductCode]; ok {
			continue
		}
		seen[l.ProductCode] = struct{}{}
		lookups = append(lookups, integration.PhotoLookup{Code: l.ProductCode, Name: l.ProductName})
	}
	urls := s.photos.ResolveBatch(ctx, lookups)

	for _, l := range targets {
		url, ok := urls[l.ProductCode]
		if !ok {
			result.Failed++
			continue
		}
		if _, err := s.SetPhoto(ctx, l.ID, url); err != nil {
			result.Failed++
			s.logger.Warn("Failed to update photo", zap.Int64("id", l.ID), zap.Error(err))
			continue
		}
		result.Updated++
	}

	s.logger.Info("Photo refresh completed",
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total),
	)
	return result, nil
}
