package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrops-br/apip-render/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxFragmentBytes = 1 << 20

// Messages the embedding service prints next to the price.
const (
	inStockMessage    = "from Amazon"
	outOfStockMessage = "See at Amazon"
)

// EmbedClient calls the product-embedding service over HTTP.
type EmbedClient struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewEmbedClient creates a client for endpoint. An empty endpoint makes every
// request return an empty fragment.
func NewEmbedClient(endpoint string, timeout time.Duration, logger *slog.Logger) *EmbedClient {
	return &EmbedClient{
		endpoint: strings.TrimSpace(endpoint),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Embed requests the fragment for req.ProductID. Non-2xx answers are errors.
func (c *EmbedClient) Embed(ctx context.Context, req domain.EmbedRequest) (string, error) {
	if c.endpoint == "" {
		c.logger.DebugContext(ctx, "Embedding endpoint not configured",
			slog.String("product_id", string(req.ProductID)),
		)
		return "", nil
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse embed endpoint: %w", err)
	}

	q := u.Query()
	q.Set("asin", string(req.ProductID))
	q.Set("fields", strings.Join(req.Fields, ","))
	q.Set("container", "")
	q.Set("msg_instock", inStockMessage)
	q.Set("msg_outofstock", outOfStockMessage)
	if req.PartnerID != "" {
		q.Set("partner_id", req.PartnerID)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build embed request: %w", err)
	}
	httpReq.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("embed request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentBytes))
	if err != nil {
		return "", fmt.Errorf("read embed response: %w", err)
	}
	return string(body), nil
}
