package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics groups the counters recorded by the render pipeline.
type Metrics struct {
	upstreamFetches metric.Int64Counter
	cacheLookups    metric.Int64Counter
	blocksRendered  metric.Int64Counter
	imageVariants   metric.Int64Counter
}

// NewMetrics registers the pipeline instruments on meter.
func NewMetrics(meter metric.Meter) *Metrics {
	upstreamFetches, _ := meter.Int64Counter(
		"apip.upstream.fetches",
		metric.WithDescription("Calls made to the product embedding service"),
	)

	cacheLookups, _ := meter.Int64Counter(
		"apip.cache.lookups",
		metric.WithDescription("Per-render product cache lookups"),
	)

	blocksRendered, _ := meter.Int64Counter(
		"apip.blocks.rendered",
		metric.WithDescription("Product blocks assembled"),
	)

	imageVariants, _ := meter.Int64Counter(
		"apip.image.variants",
		metric.WithDescription("Image blocks produced, by variant"),
	)

	return &Metrics{
		upstreamFetches: upstreamFetches,
		cacheLookups:    cacheLookups,
		blocksRendered:  blocksRendered,
		imageVariants:   imageVariants,
	}
}

func (m *Metrics) fetch(ctx context.Context, result string) {
	m.upstreamFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) lookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) block(ctx context.Context, withIdentifier bool) {
	m.blocksRendered.Add(ctx, 1, metric.WithAttributes(attribute.Bool("identifier", withIdentifier)))
}

func (m *Metrics) variant(ctx context.Context, variant string) {
	m.imageVariants.Add(ctx, 1, metric.WithAttributes(attribute.String("variant", variant)))
}
