package domain

import "context"

// Fields requested from the embedding service for every product.
var EmbedFields = []string{"med-image", "lg-image", "link_clean", "price_clean"}

// EmbedRequest is one call to the product-embedding service.
type EmbedRequest struct {
	ProductID ProductID
	Fields    []string
	PartnerID string
}

// EmbeddingService returns the raw HTML fragment for a product.
// An empty fragment with a nil error is a valid answer.
type EmbeddingService interface {
	Embed(ctx context.Context, req EmbedRequest) (string, error)
}

// ImageProber looks up the pixel dimensions of a remote image.
type ImageProber interface {
	Dimensions(ctx context.Context, url string) (Dimensions, error)
}

// Sanitizer strips disallowed markup from free text before it is embedded.
type Sanitizer interface {
	Sanitize(s string) string
}
