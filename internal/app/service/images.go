package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mrops-br/apip-render/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	insecureImageOrigin = "http://images.amazon.com"
	secureImageOrigin   = "https://images-na.ssl-images-amazon.com"

	// srcsetMinSide is the smallest medium image side that still gets a srcset.
	srcsetMinSide = 300
)

// NormalizeImageURL moves product images off the insecure origin to avoid
// mixed content. Other URLs are returned unchanged.
func NormalizeImageURL(u string) string {
	if strings.HasPrefix(u, insecureImageOrigin) {
		return secureImageOrigin + strings.TrimPrefix(u, insecureImageOrigin)
	}
	return u
}

// OverrideImageBlock wraps an explicitly supplied product image.
func OverrideImageBlock(imageURL, affiliateLink string) domain.ImageBlock {
	return domain.ImageBlock{
		Variant: domain.VariantOverride,
		Markup:  imageWrapper(domain.VariantOverride, affiliateLink, `<img src="`+imageURL+`">`),
	}
}

func imageWrapper(variant domain.ImageVariant, affiliateLink, img string) string {
	return fmt.Sprintf(`<div class="amazon-image-wrapper %s"><a href="%s" target="_blank">%s</a></div>`,
		variant.WrapperClass(), affiliateLink, img)
}

// ImageNormalizer picks the image representation for fetched product images.
type ImageNormalizer struct {
	prober  domain.ImageProber
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics *Metrics
}

// NewImageNormalizer creates a normalizer backed by prober.
func NewImageNormalizer(prober domain.ImageProber, tracer trace.Tracer, logger *slog.Logger, metrics *Metrics) *ImageNormalizer {
	return &ImageNormalizer{
		prober:  prober,
		tracer:  tracer,
		logger:  logger,
		metrics: metrics,
	}
}

// Select normalizes both URLs and builds the image block. A medium image of
// at least 300x300 gets a srcset with the large image; anything else, including
// unknown dimensions, falls back to the large image alone, even when its URL
// is empty.
func (n *ImageNormalizer) Select(ctx context.Context, mediumURL, largeURL, affiliateLink string) domain.ImageBlock {
	ctx, span := n.tracer.Start(ctx, "ImageNormalizer.Select")
	defer span.End()

	mediumURL = NormalizeImageURL(mediumURL)
	largeURL = NormalizeImageURL(largeURL)

	medium := n.measure(ctx, mediumURL)
	large := n.measure(ctx, largeURL)

	span.SetAttributes(
		attribute.Int("image.medium.width", medium.Width),
		attribute.Int("image.medium.height", medium.Height),
		attribute.Int("image.large.width", large.Width),
		attribute.Int("image.large.height", large.Height),
	)

	var block domain.ImageBlock
	if medium.Width >= srcsetMinSide && medium.Height >= srcsetMinSide {
		img := fmt.Sprintf(`<img src="%s" srcset="%s 300w, %s 500w" sizes="(max-width: 550px) 500px, 170px">`,
			mediumURL, mediumURL, largeURL)
		block = domain.ImageBlock{
			Variant: domain.VariantLargeWithSrcset,
			Markup:  imageWrapper(domain.VariantLargeWithSrcset, affiliateLink, img),
		}
	} else {
		block = domain.ImageBlock{
			Variant: domain.VariantLargeOnly,
			Markup:  imageWrapper(domain.VariantLargeOnly, affiliateLink, `<img src="`+largeURL+`">`),
		}
	}

	n.metrics.variant(ctx, string(block.Variant))
	span.SetAttributes(attribute.String("image.variant", string(block.Variant)))
	span.SetStatus(codes.Ok, "Image selected")
	return block
}

func (n *ImageNormalizer) measure(ctx context.Context, url string) domain.Dimensions {
	if url == "" {
		return domain.Dimensions{}
	}
	dims, err := n.prober.Dimensions(ctx, url)
	if err != nil {
		n.logger.DebugContext(ctx, "Image dimensions unavailable",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return domain.Dimensions{}
	}
	return dims
}
