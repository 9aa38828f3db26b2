package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mrops-br/apip-render/internal/domain"
	"github.com/mrops-br/apip-render/internal/infrastructure/repository/memory"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	testAffLink   = "https://aff.example/B000TEST"
	testMediumURL = "https://images-na.ssl-images-amazon.com/images/I/med.jpg"
	testLargeURL  = "https://images-na.ssl-images-amazon.com/images/I/lg.jpg"
)

// testFragment mirrors the embedding service layout: one element per line.
const testFragment = `<div class="amazon-element-wrapper">
<div class="amazon-element-med-image"><a href="https://www.amazon.com/dp/B000TEST"><img src="http://images.amazon.com/images/I/med.jpg" alt="Widget"></a></div>
<div class="amazon-element-lg-image"><a href="https://www.amazon.com/dp/B000TEST"><img src="http://images.amazon.com/images/I/lg.jpg" alt="Widget"></a></div>
<div class="amazon-element-price"><a href="https://www.amazon.com/dp/B000TEST" target="_blank"><button>Buy Now</button></a></div>
</div>`

type fakeEmbed struct {
	mu        sync.Mutex
	fragments map[domain.ProductID]string
	err       error
	calls     map[domain.ProductID]int
	requests  []domain.EmbedRequest
}

func newFakeEmbed(fragments map[domain.ProductID]string) *fakeEmbed {
	return &fakeEmbed{fragments: fragments, calls: map[domain.ProductID]int{}}
}

func (f *fakeEmbed) Embed(_ context.Context, req domain.EmbedRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[req.ProductID]++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.fragments[req.ProductID], nil
}

func (f *fakeEmbed) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeProber struct {
	mu    sync.Mutex
	dims  map[string]domain.Dimensions
	calls []string
}

func (f *fakeProber) Dimensions(_ context.Context, url string) (domain.Dimensions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	d, ok := f.dims[url]
	if !ok {
		return domain.Dimensions{}, errors.Join(domain.ErrImageLookup, errors.New("unreachable"))
	}
	return d, nil
}

// scriptStripper removes script tags, enough to observe sanitizer wiring.
type scriptStripper struct{}

func (scriptStripper) Sanitize(s string) string {
	return strings.NewReplacer("<script>", "", "</script>", "").Replace(s)
}

var (
	testTracer = noop.NewTracerProvider().Tracer("test")
	testLogger = slog.New(slog.DiscardHandler)
)

func testMetrics() *Metrics {
	return NewMetrics(metricnoop.NewMeterProvider().Meter("test"))
}

type testPipeline struct {
	embed    *fakeEmbed
	prober   *fakeProber
	fetcher  *UpstreamFetcher
	images   *ImageNormalizer
	resolver *ProductResolver
	renderer *BlockRenderer
}

func newTestPipeline(embed *fakeEmbed, prober *fakeProber) *testPipeline {
	m := testMetrics()
	fetcher := NewUpstreamFetcher(embed, scriptStripper{}, "", testTracer, testLogger, m)
	images := NewImageNormalizer(prober, testTracer, testLogger, m)
	resolver := NewProductResolver(fetcher, images, m)
	return &testPipeline{
		embed:    embed,
		prober:   prober,
		fetcher:  fetcher,
		images:   images,
		resolver: resolver,
		renderer: NewBlockRenderer(resolver, scriptStripper{}, testTracer, testLogger, m),
	}
}

func newRenderContext() (context.Context, *memory.ProductCache) {
	cache := memory.NewProductCache(testTracer, testLogger)
	return memory.WithCache(context.Background(), cache), cache
}

func bigMedium() *fakeProber {
	return &fakeProber{dims: map[string]domain.Dimensions{
		testMediumURL: {Width: 300, Height: 300},
		testLargeURL:  {Width: 500, Height: 500},
	}}
}
