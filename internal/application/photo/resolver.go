// Package photo resolves product photos from the photo bucket by product
// and model code.
package photo

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ordertrack/backend/internal/domain/integration"
)

const (
	// ListLimit is the number of bucket entries scanned per resolution
	ListLimit = 1000
	// BatchConcurrency bounds concurrent resolutions in ResolveBatch
	BatchConcurrency = 3
	// DefaultBatchInterval spaces out resolutions in ResolveBatch
	DefaultBatchInterval = 400 * time.Millisecond
)

// ObjectLister is the view of the photo bucket the resolver needs
type ObjectLister interface {
	// ListObjectNames returns up to limit object names from the bucket root
	ListObjectNames(ctx context.Context, limit int) ([]string, error)
	// PublicURL returns the public address of an object
	PublicURL(name string) string
}

// Resolver maps product codes to public photo URLs.
// Confirmed URLs are cached for the process lifetime.
type Resolver struct {
	lister        ObjectLister
	logger        *zap.Logger
	batchInterval time.Duration

	mu    sync.RWMutex
	cache map[string]string
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithBatchInterval sets the spacing between batch resolutions.
// Zero disables spacing.
func WithBatchInterval(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.batchInterval = d
	}
}

// NewResolver creates a Resolver over lister. A nil lister yields a disabled
// resolver that never returns a URL.
func NewResolver(lister ObjectLister, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lister:        lister,
		logger:        zap.NewNop(),
		batchInterval: DefaultBatchInterval,
		cache:         make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enabled reports whether a bucket is configured
func (r *Resolver) Enabled() bool {
	return r != nil && r.lister != nil
}

// Candidates returns the object names tried for a product, best first.
// A model code found in name outranks code itself.
func Candidates(code, name string) []string {
	var bases []string
	if mc := integration.ExtractModelCode(name); mc != "" {
		bases = append(bases, mc)
	}
	if code != "" {
		bases = append(bases, code)
	}

	out := make([]string, 0, len(bases)*4)
	for _, b := range bases {
		out = append(out, b+"ZZ.jpg", b+"ZZ.png", b+".jpg", b+".png")
	}
	return out
}

// Resolve returns the photo URL for code, or "" when none is known.
// A cached URL is returned without listing the bucket.
func (r *Resolver) Resolve(ctx context.Context, code, name string) string {
	if !r.Enabled() || code == "" {
		return ""
	}
	if url, ok := r.cached(code); ok {
		return url
	}
	return r.lookup(ctx, code, name)
}

// Refresh resolves code against the bucket, bypassing the cache
func (r *Resolver) Refresh(ctx context.Context, code, name string) string {
	if !r.Enabled() || code == "" {
		return ""
	}
	return r.lookup(ctx, code, name)
}

// Clear drops every cached URL
func (r *Resolver) Clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.cache = make(map[string]string)
	r.mu.Unlock()
}

// ResolveBatch resolves lookups with bounded concurrency and returns the
// found URLs keyed by code. Lookups without a URL are absent from the map.
func (r *Resolver) ResolveBatch(ctx context.Context, lookups []integration.PhotoLookup) map[string]string {
	results := make(map[string]string, len(lookups))
	if !r.Enabled() || len(lookups) == 0 {
		return results
	}

	limit := rate.Inf
	if r.batchInterval > 0 {
		limit = rate.Every(r.batchInterval)
	}
	limiter := rate.NewLimiter(limit, 1)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(BatchConcurrency)
	for _, l := range lookups {
		if l.Code == "" {
			continue
		}
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			if url := r.Resolve(gctx, l.Code, l.Name); url != "" {
				mu.Lock()
				results[l.Code] = url
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Warn("Photo batch interrupted",
			zap.Int("resolved", len(results)),
			zap.Error(err),
		)
	}
	return results
}

func (r *Resolver) cached(code string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	url, ok := r.cache[code]
	return url, ok && url != ""
}

func (r *Resolver) store(code, url string) {
	r.mu.Lock()
	r.cache[code] = url
	r.mu.Unlock()
}

// lookup matches the candidates against one bucket listing. Only listed
// matches are cached. When the listing fails or is empty the first candidate's
// URL is returned without caching it, so a later listing can replace the guess.
func (r *Resolver) lookup(ctx context.Context, code, name string) string {
	candidates := Candidates(code, name)

	names, err := r.lister.ListObjectNames(ctx, ListLimit)
	if err != nil || len(names) == 0 {
		fallback := r.lister.PublicURL(candidates[0])
		r.logger.Warn("Photo bucket listing unavailable, using first candidate",
			zap.String("product_code", code),
			zap.String("url", fallback),
			zap.Error(err),
		)
		return fallback
	}

	index := make(map[string]string, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if _, dup := index[key]; !dup {
			index[key] = n
		}
	}

	for _, c := range candidates {
		if listed, ok := index[strings.ToLower(c)]; ok {
			url := r.lister.PublicURL(listed)
			r.store(code, url)
			r.logger.Debug("Photo resolved",
				zap.String("product_code", code),
				zap.String("object", listed),
			)
			return url
		}
	}

	r.logger.Debug("No photo for product", zap.String("product_code", code))
	return ""
}
