package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mrops-br/apip-render/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestCache() *ProductCache {
	return NewProductCache(noop.NewTracerProvider().Tracer("test"), slog.New(slog.DiscardHandler))
}

func TestProductCacheGetMissingRecord(t *testing.T) {
	c := newTestCache()

	_, ok := c.Get(context.Background(), "B000", domain.FieldPriceButton)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestProductCacheSetAndGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()

	require.NoError(t, c.Set(ctx, "B000", domain.FieldPriceButton, "<button>x</button>"))

	v, ok := c.Get(ctx, "B000", domain.FieldPriceButton)
	require.True(t, ok)
	assert.Equal(t, "<button>x</button>", v)

	_, ok = c.Get(ctx, "B000", domain.FieldImage)
	assert.False(t, ok, "image was never set")
}

func TestProductCacheSetImageKeepsVariant(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()

	require.NoError(t, c.Set(ctx, "B000", domain.FieldPriceButton, "btn"))
	c.SetImage(ctx, "B000", domain.ImageBlock{Variant: domain.VariantOverride, Markup: "<img>"})

	rec, ok := c.Record(ctx, "B000")
	require.True(t, ok)
	assert.Equal(t, "btn", rec.PriceButton)
	assert.Equal(t, domain.VariantOverride, rec.Image.Variant)
	assert.True(t, rec.HasImage)
}

func TestProductCacheSetRejectsUntaggedImage(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	c.SetImage(ctx, "B000", domain.ImageBlock{Variant: domain.VariantOverride, Markup: "<img src=\"custom.png\">"})

	err := c.Set(ctx, "B000", domain.FieldImage, "<img src=\"plain.png\">")
	assert.True(t, errors.Is(err, domain.ErrUntaggedImage))

	err = c.Set(ctx, "B000", domain.Field("title"), "x")
	assert.True(t, errors.Is(err, domain.ErrUnknownField))

	rec, ok := c.Record(ctx, "B000")
	require.True(t, ok)
	assert.Equal(t, domain.VariantOverride, rec.Image.Variant)
	assert.Equal(t, "<img src=\"custom.png\">", rec.Image.Markup)
}

func TestProductCacheGetOrLoadRunsLoaderOnce(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	calls := 0
	load := func(context.Context) domain.ProductRecord {
		calls++
		return domain.ProductRecord{PriceButton: "btn", HasPriceButton: true}
	}

	rec, loaded := c.GetOrLoad(ctx, "B000", load)
	assert.True(t, loaded)
	assert.Equal(t, "btn", rec.PriceButton)

	rec, loaded = c.GetOrLoad(ctx, "B000", load)
	assert.False(t, loaded)
	assert.Equal(t, "btn", rec.PriceButton)
	assert.Equal(t, 1, calls)
}

func TestProductCacheGetOrLoadEmptyRecordStaysResolved(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	calls := 0
	load := func(context.Context) domain.ProductRecord {
		calls++
		return domain.ProductRecord{}
	}

	c.GetOrLoad(ctx, "B000", load)
	c.GetOrLoad(ctx, "B000", load)

	assert.Equal(t, 1, calls)
}

func TestProductCacheGetOrLoadConcurrentCallersShareFlight(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) domain.ProductRecord {
		calls.Add(1)
		<-release
		return domain.ProductRecord{PriceButton: "btn", HasPriceButton: true}
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]domain.ProductRecord, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetOrLoad(ctx, "B000", load)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, rec := range results {
		assert.Equal(t, "btn", rec.PriceButton)
	}
}

func TestProductCacheOverrideSurvivesLaterLoads(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	load := func(context.Context) domain.ProductRecord {
		return domain.ProductRecord{
			Image:    domain.ImageBlock{Variant: domain.VariantLargeOnly, Markup: "fetched"},
			HasImage: true,
		}
	}

	c.GetOrLoad(ctx, "B000", load)
	c.SetImage(ctx, "B000", domain.ImageBlock{Variant: domain.VariantOverride, Markup: "override"})

	rec, loaded := c.GetOrLoad(ctx, "B000", load)
	assert.False(t, loaded)
	assert.Equal(t, "override", rec.Image.Markup)
}

func TestCacheFromContext(t *testing.T) {
	_, err := CacheFromContext(context.Background())
	assert.True(t, errors.Is(err, domain.ErrCacheUnavailable))

	c := newTestCache()
	got, err := CacheFromContext(WithCache(context.Background(), c))
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.NotEmpty(t, got.RenderID())
}
