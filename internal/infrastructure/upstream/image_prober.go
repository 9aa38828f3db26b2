package upstream

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mrops-br/apip-render/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/image/webp"
)

// maxHeaderBytes bounds how much of an image is read to find its size.
const maxHeaderBytes = 512 << 10

// HTTPImageProber reads just enough of a remote image to decode its header.
type HTTPImageProber struct {
	client *http.Client
}

// NewHTTPImageProber creates a prober with the given request timeout.
func NewHTTPImageProber(timeout time.Duration) *HTTPImageProber {
	return &HTTPImageProber{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Dimensions fetches url and decodes the image configuration.
func (p *HTTPImageProber) Dimensions(ctx context.Context, url string) (domain.Dimensions, error) {
	if url == "" {
		return domain.Dimensions{}, fmt.Errorf("%w: empty url", domain.ErrImageLookup)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("%w: %v", domain.ErrImageLookup, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("%w: %v", domain.ErrImageLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Dimensions{}, fmt.Errorf("%w: status %d", domain.ErrImageLookup, resp.StatusCode)
	}

	cfg, _, err := image.DecodeConfig(io.LimitReader(resp.Body, maxHeaderBytes))
	if err != nil {
		return domain.Dimensions{}, fmt.Errorf("%w: decode: %v", domain.ErrImageLookup, err)
	}
	return domain.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// CachedImageProber memoizes successful lookups by URL. Failures are not
// remembered, so an unreachable image is retried by the next render.
type CachedImageProber struct {
	next  domain.ImageProber
	cache *lru.Cache[string, domain.Dimensions]
}

// NewCachedImageProber wraps next with an LRU of the given size.
func NewCachedImageProber(next domain.ImageProber, size int) (*CachedImageProber, error) {
	cache, err := lru.New[string, domain.Dimensions](size)
	if err != nil {
		return nil, fmt.Errorf("create dimension cache: %w", err)
	}
	return &CachedImageProber{next: next, cache: cache}, nil
}

// Dimensions returns the memoized size of url or asks the wrapped prober.
func (p *CachedImageProber) Dimensions(ctx context.Context, url string) (domain.Dimensions, error) {
	if dims, ok := p.cache.Get(url); ok {
		return dims, nil
	}
	dims, err := p.next.Dimensions(ctx, url)
	if err != nil {
		return domain.Dimensions{}, err
	}
	p.cache.Add(url, dims)
	return dims, nil
}
