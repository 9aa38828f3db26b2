package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mrops-br/apip-render/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FetchResult is the fragment produced for one product request.
type FetchResult struct {
	Fragment string
	// Fallback is set when the fragment was synthesized locally.
	Fallback bool
}

// FallbackPriceButton is the fragment used when the embedding service has
// nothing for a product.
func FallbackPriceButton(affiliateLink string) string {
	return `<a target="_blank" href="` + affiliateLink + `" ><button>` + CanonicalButtonLabel + `</button></a>`
}

// UpstreamFetcher requests product fragments from the embedding service.
type UpstreamFetcher struct {
	embed            domain.EmbeddingService
	sanitizer        domain.Sanitizer
	defaultPartnerID string
	tracer           trace.Tracer
	logger           *slog.Logger
	metrics          *Metrics
}

// NewUpstreamFetcher creates a fetcher. defaultPartnerID is used when a
// placement does not name one.
func NewUpstreamFetcher(
	embed domain.EmbeddingService,
	sanitizer domain.Sanitizer,
	defaultPartnerID string,
	tracer trace.Tracer,
	logger *slog.Logger,
	metrics *Metrics,
) *UpstreamFetcher {
	return &UpstreamFetcher{
		embed:            embed,
		sanitizer:        sanitizer,
		defaultPartnerID: defaultPartnerID,
		tracer:           tracer,
		logger:           logger,
		metrics:          metrics,
	}
}

// Fetch makes exactly one request for id. It never fails: an empty answer or
// a transport error yields the fallback price button.
func (f *UpstreamFetcher) Fetch(ctx context.Context, id domain.ProductID, affiliateLink, partnerID string) FetchResult {
	ctx, span := f.tracer.Start(ctx, "UpstreamFetcher.Fetch")
	defer span.End()

	partnerID = strings.TrimSpace(f.sanitizer.Sanitize(partnerID))
	if partnerID == "" {
		partnerID = f.defaultPartnerID
	}

	span.SetAttributes(
		attribute.String("product.id", string(id)),
		attribute.String("partner.id", partnerID),
	)

	fragment, err := f.embed.Embed(ctx, domain.EmbedRequest{
		ProductID: id,
		Fields:    domain.EmbedFields,
		PartnerID: partnerID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding request failed")
		f.logger.WarnContext(ctx, "Embedding request failed, using fallback button",
			slog.String("product_id", string(id)),
			slog.String("error", err.Error()),
		)
		f.metrics.fetch(ctx, "error")
		return FetchResult{Fragment: FallbackPriceButton(affiliateLink), Fallback: true}
	}

	if strings.TrimSpace(fragment) == "" {
		span.AddEvent(domain.ErrUpstreamEmpty.Error())
		f.logger.InfoContext(ctx, "Embedding service returned nothing, using fallback button",
			slog.String("product_id", string(id)),
		)
		f.metrics.fetch(ctx, "fallback")
		return FetchResult{Fragment: FallbackPriceButton(affiliateLink), Fallback: true}
	}

	f.metrics.fetch(ctx, "success")
	f.logger.DebugContext(ctx, "Embedding fragment received",
		slog.String("product_id", string(id)),
		slog.Int("bytes", len(fragment)),
	)

	span.SetStatus(codes.Ok, "Fragment received")
	return FetchResult{Fragment: fragment}
}
