package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mrops-br/apip-render/internal/domain"
	"github.com/mrops-br/apip-render/internal/infrastructure/repository/memory"
	"github.com/mrops-br/apip-render/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// PageOptions tune how a page is rendered.
type PageOptions struct {
	// Prefetch resolves distinct identifiers concurrently before placements
	// are assembled.
	Prefetch bool
	// PrefetchLimit caps concurrent upstream fetches; values below 1 mean 1.
	PrefetchLimit int
}

// Page is everything rendered against one cache.
type Page struct {
	Placements []domain.PlacementOptions
	// TopChoice, when set, is resolved before the placements.
	TopChoice *domain.TopChoice
}

// PageResult is the output of one render.
type PageResult struct {
	RenderID  string
	TopChoice string
	Blocks    []string
}

// HTML joins the blocks in placement order.
func (p PageResult) HTML() string {
	return strings.Join(p.Blocks, "\n")
}

// PageRenderer owns the render lifecycle: one cache per call.
type PageRenderer struct {
	blocks    *BlockRenderer
	resolver  *ProductResolver
	sanitizer domain.Sanitizer
	opts      PageOptions
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewPageRenderer creates a page renderer.
func NewPageRenderer(
	blocks *BlockRenderer,
	resolver *ProductResolver,
	sanitizer domain.Sanitizer,
	opts PageOptions,
	tracer trace.Tracer,
	logger *slog.Logger,
) *PageRenderer {
	if opts.PrefetchLimit < 1 {
		opts.PrefetchLimit = 1
	}
	return &PageRenderer{
		blocks:    blocks,
		resolver:  resolver,
		sanitizer: sanitizer,
		opts:      opts,
		tracer:    tracer,
		logger:    logger,
	}
}

// RenderPage renders placements in order against a fresh cache.
func (p *PageRenderer) RenderPage(ctx context.Context, placements []domain.PlacementOptions) PageResult {
	return p.Render(ctx, Page{Placements: placements})
}

// Render renders a page against a fresh cache that is dropped when the call
// returns. The top choice and the placements are assembled sequentially so
// override images written by one placement are seen by the next.
func (p *PageRenderer) Render(ctx context.Context, page Page) PageResult {
	ctx, span := p.tracer.Start(ctx, "PageRenderer.Render")
	defer span.End()

	cache := memory.NewProductCache(p.tracer, p.logger)
	ctx = telemetry.WithRenderID(memory.WithCache(ctx, cache), cache.RenderID())

	span.SetAttributes(
		attribute.String("render.id", cache.RenderID()),
		attribute.Int("render.placements", len(page.Placements)),
		attribute.Bool("render.top_choice", page.TopChoice != nil),
	)

	p.logger.InfoContext(ctx, "Rendering page",
		slog.Int("placements", len(page.Placements)),
	)

	if p.opts.Prefetch {
		p.prefetch(ctx, cache, page)
	}

	res := PageResult{RenderID: cache.RenderID()}
	if page.TopChoice != nil {
		res.TopChoice = p.blocks.TopChoiceButton(ctx, page.TopChoice.ProductID, page.TopChoice.AffiliateLink)
	}

	res.Blocks = make([]string, len(page.Placements))
	for i, opts := range page.Placements {
		res.Blocks[i] = p.blocks.RenderBlock(ctx, opts)
	}

	span.SetAttributes(attribute.Int("render.products", cache.Len()))
	span.SetStatus(codes.Ok, "Page rendered")
	return res
}

// prefetch resolves each distinct identifier with the links of its first use,
// which is the use that would have triggered the fetch.
func (p *PageRenderer) prefetch(ctx context.Context, cache *memory.ProductCache, page Page) {
	ctx, span := p.tracer.Start(ctx, "PageRenderer.prefetch")
	defer span.End()

	seen := make(map[domain.ProductID]struct{})
	var g errgroup.Group
	g.SetLimit(p.opts.PrefetchLimit)

	queue := func(rawID domain.ProductID, rawLink, partnerID string) {
		id := domain.ProductID(strings.TrimSpace(p.sanitizer.Sanitize(string(rawID))))
		if id.IsZero() {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}

		affiliateLink := safeLink(p.sanitizer.Sanitize(rawLink))
		g.Go(func() error {
			p.resolver.Resolve(ctx, cache, id, affiliateLink, partnerID)
			return nil
		})
	}

	if page.TopChoice != nil {
		queue(page.TopChoice.ProductID, page.TopChoice.AffiliateLink, "")
	}
	for _, opts := range page.Placements {
		queue(opts.ProductID, opts.AffiliateLink, opts.PartnerID)
	}

	_ = g.Wait()
	span.SetAttributes(attribute.Int("render.prefetched", len(seen)))
}
