package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/matzehuels/portalcore/pkg/api"
	"github.com/matzehuels/portalcore/pkg/observability"
	"github.com/matzehuels/portalcore/pkg/session"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
		tracing bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Serves filter compilation, query building, dictionary graphs and layouts,
and workspace sessions under /v1. Stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			if tracing {
				hooks := observability.NewTracingHooks(otel.GetTracerProvider())
				observability.Install(hooks)
				defer observability.Reset()
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			store := session.NewMemoryStore(c.cfg.Server.SessionTTL())
			srv := api.New(runner, store, c.cfg, loggerFromContext(ctx))

			printInfo("Serving on %s", StyleHighlight.Render(c.cfg.Server.Addr))
			printDetail("cache: %s · sessions expire after %s", c.cfg.Cache.Backend, store.TTL())
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&tracing, "trace", false, "record spans with the global OpenTelemetry tracer provider")

	return cmd
}
