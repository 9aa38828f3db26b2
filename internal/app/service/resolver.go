package service

import (
	"context"

	"github.com/mrops-br/apip-render/internal/domain"
	"github.com/mrops-br/apip-render/internal/infrastructure/repository/memory"
)

// ProductResolver runs fetch, extraction and image selection for an
// identifier, going through the render's cache so each identifier is fetched
// once.
type ProductResolver struct {
	fetcher *UpstreamFetcher
	images  *ImageNormalizer
	metrics *Metrics
}

// NewProductResolver wires the fetch pipeline.
func NewProductResolver(fetcher *UpstreamFetcher, images *ImageNormalizer, metrics *Metrics) *ProductResolver {
	return &ProductResolver{
		fetcher: fetcher,
		images:  images,
		metrics: metrics,
	}
}

// Resolve returns the cached record for id, loading it on a miss. Both fields
// come from the same load, so asking for either one resolves the other.
func (p *ProductResolver) Resolve(
	ctx context.Context,
	cache *memory.ProductCache,
	id domain.ProductID,
	affiliateLink, partnerID string,
) domain.ProductRecord {
	rec, loaded := cache.GetOrLoad(ctx, id, func(ctx context.Context) domain.ProductRecord {
		return p.load(ctx, id, affiliateLink, partnerID)
	})
	p.metrics.lookup(ctx, !loaded)
	return rec
}

func (p *ProductResolver) load(ctx context.Context, id domain.ProductID, affiliateLink, partnerID string) domain.ProductRecord {
	res := p.fetcher.Fetch(ctx, id, affiliateLink, partnerID)
	if res.Fallback {
		return domain.ProductRecord{PriceButton: res.Fragment, HasPriceButton: true}
	}

	ex := ExtractMarkup(res.Fragment, affiliateLink)
	return domain.ProductRecord{
		PriceButton:    ex.PriceButton,
		HasPriceButton: ex.PriceButton != "",
		Image:          p.images.Select(ctx, ex.MediumURL, ex.LargeURL, affiliateLink),
		HasImage:       true,
	}
}
