package main

import (
	"fmt"
	"os"

	"github.com/mrops-br/apip-render/internal/app/service"
	"github.com/mrops-br/apip-render/internal/infrastructure/config"
	"github.com/mrops-br/apip-render/internal/infrastructure/sanitize"
	"github.com/mrops-br/apip-render/internal/infrastructure/telemetry"
	"github.com/mrops-br/apip-render/internal/infrastructure/upstream"
	"github.com/spf13/cobra"
)

type options struct {
	embedEndpoint string
	noPrefetch    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "apip-render <page.yaml>",
		Short: "Render product blocks for one page",
		Long: `Render every placement of a page file with a single product cache and
print the resulting HTML. A top_choice entry prints its price label on the
first line. Use "-" to read the page from stdin.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.embedEndpoint, "embed-endpoint", "", "Product embedding service URL (overrides APIP_EMBED_ENDPOINT)")
	cmd.Flags().BoolVar(&opts.noPrefetch, "no-prefetch", false, "Resolve products one placement at a time")

	return cmd
}

func run(cmd *cobra.Command, path string, opts *options) error {
	page, err := loadPageFile(path)
	if err != nil {
		return err
	}

	cfg := config.LoadConfig()
	if opts.embedEndpoint != "" {
		cfg.Upstream.EmbedEndpoint = opts.embedEndpoint
	}
	if opts.noPrefetch {
		cfg.Render.Prefetch = false
	}

	telem := telemetry.Discard()
	tracer := telem.TracerProvider.Tracer("apip-render")
	logger := telem.Logger
	metrics := service.NewMetrics(telem.MeterProvider.Meter("apip-render"))

	policy := sanitize.NewPolicy()
	embed := upstream.NewEmbedClient(cfg.Upstream.EmbedEndpoint, cfg.Upstream.Timeout, logger)
	prober, err := upstream.NewCachedImageProber(
		upstream.NewHTTPImageProber(cfg.Images.ProbeTimeout),
		cfg.Images.DimensionCacheSize,
	)
	if err != nil {
		return err
	}

	fetcher := service.NewUpstreamFetcher(embed, policy, cfg.Upstream.DefaultPartnerID, tracer, logger, metrics)
	images := service.NewImageNormalizer(prober, tracer, logger, metrics)
	resolver := service.NewProductResolver(fetcher, images, metrics)
	blocks := service.NewBlockRenderer(resolver, policy, tracer, logger, metrics)
	pages := service.NewPageRenderer(blocks, resolver, policy, service.PageOptions{
		Prefetch:      cfg.Render.Prefetch,
		PrefetchLimit: cfg.Render.PrefetchLimit,
	}, tracer, logger)

	res := pages.Render(cmd.Context(), service.Page{Placements: page.Placements, TopChoice: page.TopChoice})
	if res.TopChoice != "" {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), res.TopChoice); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), res.HTML())
	return err
}
