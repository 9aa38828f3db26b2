package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/mrops-br/apip-render/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Loader produces the record for an identifier on a cache miss.
type Loader func(ctx context.Context) domain.ProductRecord

// ProductCache is the product store for a single render.
//
// A cache is created when a render starts and dropped when it ends; it is
// never shared between renders. Records are replaced whole under mu, and
// GetOrLoad collapses concurrent misses for one identifier into a single load.
type ProductCache struct {
	mu       sync.RWMutex
	records  map[domain.ProductID]domain.ProductRecord
	flights  singleflight.Group
	renderID string
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductCache creates an empty cache tagged with a fresh render id.
func NewProductCache(tracer trace.Tracer, logger *slog.Logger) *ProductCache {
	renderID := uuid.NewString()
	return &ProductCache{
		records:  make(map[domain.ProductID]domain.ProductRecord),
		renderID: renderID,
		tracer:   tracer,
		logger:   logger,
	}
}

// RenderID identifies the render that owns this cache.
func (c *ProductCache) RenderID() string {
	return c.renderID
}

// Len returns the number of resolved identifiers.
func (c *ProductCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Get returns a single field for id.
func (c *ProductCache) Get(ctx context.Context, id domain.ProductID, field domain.Field) (string, bool) {
	rec, ok := c.Record(ctx, id)
	if !ok {
		return "", false
	}
	return rec.Value(field)
}

// Record returns the full record for id, if it was resolved.
func (c *ProductCache) Record(ctx context.Context, id domain.ProductID) (domain.ProductRecord, bool) {
	_, span := c.tracer.Start(ctx, "ProductCache.Record")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", string(id)))

	c.mu.RLock()
	rec, ok := c.records[id]
	c.mu.RUnlock()

	span.SetAttributes(attribute.Bool("cache.hit", ok))
	return rec, ok
}

// Set stores a single string field for id, creating the record if needed.
// Images carry a variant that later placements compare against, so they are
// only accepted through SetImage.
func (c *ProductCache) Set(ctx context.Context, id domain.ProductID, field domain.Field, value string) error {
	switch field {
	case domain.FieldPriceButton:
		c.update(ctx, id, func(rec *domain.ProductRecord) {
			rec.PriceButton = value
			rec.HasPriceButton = true
		})
		return nil
	case domain.FieldImage:
		return fmt.Errorf("%w: store %q images with SetImage", domain.ErrUntaggedImage, id)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}
}

// SetImage replaces the image block of id in place.
func (c *ProductCache) SetImage(ctx context.Context, id domain.ProductID, block domain.ImageBlock) {
	c.update(ctx, id, func(rec *domain.ProductRecord) {
		rec.Image = block
		rec.HasImage = true
	})
}

func (c *ProductCache) update(ctx context.Context, id domain.ProductID, mutate func(*domain.ProductRecord)) {
	ctx, span := c.tracer.Start(ctx, "ProductCache.Set")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", string(id)))

	c.mu.Lock()
	rec := c.records[id]
	mutate(&rec)
	c.records[id] = rec
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Product record updated",
		slog.String("product_id", string(id)),
	)
	span.SetStatus(codes.Ok, "Record stored")
}

// GetOrLoad returns the record for id, running load at most once for the
// lifetime of the cache. Callers racing on the same id share one load.
// The boolean reports whether this call performed the load.
func (c *ProductCache) GetOrLoad(ctx context.Context, id domain.ProductID, load Loader) (domain.ProductRecord, bool) {
	ctx, span := c.tracer.Start(ctx, "ProductCache.GetOrLoad")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", string(id)))

	if rec, ok := c.lookup(id); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return rec, false
	}

	loaded := false
	v, _, shared := c.flights.Do(string(id), func() (any, error) {
		// a flight that finished between lookup and Do already stored the record
		if rec, ok := c.lookup(id); ok {
			return rec, nil
		}
		rec := load(ctx)
		loaded = true

		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.records[id]; ok {
			return existing, nil
		}
		c.records[id] = rec
		return rec, nil
	})

	span.SetAttributes(
		attribute.Bool("cache.hit", false),
		attribute.Bool("cache.shared_flight", shared),
	)

	if loaded {
		c.logger.DebugContext(ctx, "Product record loaded",
			slog.String("product_id", string(id)),
		)
	}

	span.SetStatus(codes.Ok, "Record resolved")
	return v.(domain.ProductRecord), loaded
}

func (c *ProductCache) lookup(id domain.ProductID) (domain.ProductRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[id]
	return rec, ok
}

type cacheKey struct{}

// WithCache binds cache to the render carried by ctx.
func WithCache(ctx context.Context, cache *ProductCache) context.Context {
	return context.WithValue(ctx, cacheKey{}, cache)
}

// CacheFromContext returns the cache bound to ctx, or domain.ErrCacheUnavailable.
func CacheFromContext(ctx context.Context) (*ProductCache, error) {
	if cache, ok := ctx.Value(cacheKey{}).(*ProductCache); ok && cache != nil {
		return cache, nil
	}
	return nil, domain.ErrCacheUnavailable
}
