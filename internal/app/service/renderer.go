package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/mrops-br/apip-render/internal/domain"
	"github.com/mrops-br/apip-render/internal/infrastructure/repository/memory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SourceButton links to an affiliate with a "See Price at {source}" button.
// The block width never changes this markup.
func SourceButton(affiliateLink, source string) string {
	return `<a href="` + affiliateLink + `" target="_blank"><button>See Price at ` + source + `</button></a>`
}

// safeLink blanks a URL whose scheme is anything but http or https, so a
// sanitized value cannot become a script link inside an attribute. Relative
// URLs pass.
func safeLink(link string) string {
	probe := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return unicode.ToLower(r)
	}, link)
	if i := strings.IndexAny(probe, ":/?#"); i >= 0 && probe[i] == ':' {
		if scheme := probe[:i]; scheme != "http" && scheme != "https" {
			return ""
		}
	}
	return link
}

// BlockRenderer assembles the product block for one placement.
type BlockRenderer struct {
	resolver  *ProductResolver
	sanitizer domain.Sanitizer
	tracer    trace.Tracer
	logger    *slog.Logger
	metrics   *Metrics
}

// NewBlockRenderer creates a renderer.
func NewBlockRenderer(
	resolver *ProductResolver,
	sanitizer domain.Sanitizer,
	tracer trace.Tracer,
	logger *slog.Logger,
	metrics *Metrics,
) *BlockRenderer {
	return &BlockRenderer{
		resolver:  resolver,
		sanitizer: sanitizer,
		tracer:    tracer,
		logger:    logger,
		metrics:   metrics,
	}
}

// RenderBlock renders one placement using the cache bound to ctx. Without a
// bound cache the result is empty.
//
// A placement with an override image that finds a non-override image in the
// cache replaces it and writes the override back for its identifier, so every
// later placement of that identifier in the same render shows the override,
// even when it supplies no image of its own.
func (r *BlockRenderer) RenderBlock(ctx context.Context, opts domain.PlacementOptions) string {
	ctx, span := r.tracer.Start(ctx, "BlockRenderer.RenderBlock")
	defer span.End()

	cache, err := memory.CacheFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No cache bound")
		r.logger.WarnContext(ctx, "Skipping product block", slog.String("error", err.Error()))
		return ""
	}

	opts = opts.WithDefaults()
	clean := r.sanitizer.Sanitize

	id := domain.ProductID(strings.TrimSpace(clean(string(opts.ProductID))))
	productImage := safeLink(clean(opts.ProductImage))
	affiliateLink := safeLink(clean(opts.AffiliateLink))
	width := clean(opts.Width)

	span.SetAttributes(
		attribute.String("product.id", string(id)),
		attribute.String("block.width", width),
		attribute.Bool("block.override_image", productImage != ""),
	)

	var (
		priceButton string
		image       domain.ImageBlock
	)
	if !id.IsZero() {
		rec := r.resolver.Resolve(ctx, cache, id, affiliateLink, opts.PartnerID)
		priceButton = rec.PriceButton
		image = rec.Image
	} else {
		priceButton = SourceButton(affiliateLink, clean(opts.AffiliateSource))
	}

	if productImage != "" && image.Variant != domain.VariantOverride {
		image = OverrideImageBlock(productImage, affiliateLink)
		if !id.IsZero() {
			cache.SetImage(ctx, id, image)
		}
		r.metrics.variant(ctx, string(image.Variant))
	}

	var secondButton string
	if link2 := safeLink(clean(opts.AffiliateLink2)); link2 != "" {
		secondButton = SourceButton(link2, clean(opts.AffiliateSource2))
	}

	var b strings.Builder
	b.WriteString(`<div class="amazonpip columns-` + width + `">`)
	b.WriteString(`<div class="rank_title">` + clean(opts.Title) + `</div>`)
	b.WriteString(image.Markup)
	b.WriteString(`<div class="apip-info">`)
	b.WriteString(`<h3>` + clean(opts.ProductName) + `</h3>`)
	b.WriteString(`<p>` + clean(opts.ProductDescription) + `</p>`)
	b.WriteString(priceButton)
	b.WriteString(secondButton)
	b.WriteString(`</div>`)
	b.WriteString(`</div>`)

	r.metrics.block(ctx, !id.IsZero())
	r.logger.DebugContext(ctx, "Product block rendered",
		slog.String("product_id", string(id)),
		slog.String("image_variant", string(image.Variant)),
	)

	span.SetStatus(codes.Ok, "Block rendered")
	return b.String()
}

// TopChoiceButton returns the price label for the product featured at the top
// of a page. It reads the cache bound to ctx and, on a miss, runs the same
// single load a placement would, with the default partner id. Without a bound
// cache or an identifier the result is empty.
func (r *BlockRenderer) TopChoiceButton(ctx context.Context, id domain.ProductID, affiliateLink string) string {
	ctx, span := r.tracer.Start(ctx, "BlockRenderer.TopChoiceButton")
	defer span.End()

	cache, err := memory.CacheFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No cache bound")
		r.logger.WarnContext(ctx, "Skipping top choice", slog.String("error", err.Error()))
		return ""
	}

	id = domain.ProductID(strings.TrimSpace(r.sanitizer.Sanitize(string(id))))
	span.SetAttributes(attribute.String("product.id", string(id)))
	if id.IsZero() {
		return ""
	}

	rec := r.resolver.Resolve(ctx, cache, id, safeLink(r.sanitizer.Sanitize(affiliateLink)), "")

	span.SetStatus(codes.Ok, "Top choice resolved")
	return ButtonText(rec.PriceButton)
}
