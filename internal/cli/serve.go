package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/cutplan/internal/cache"
	"github.com/piwi3910/cutplan/internal/server"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr  string
		redis string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the optimizer as an HTTP API",
		Long: `Run the HTTP API.

Endpoints:
  GET  /healthz       liveness probe
  POST /api/optimize  optimize sheets and pieces into a plan
  POST /api/compare   run several modes and report the best

Plans are cached in Redis when --redis is set, otherwise in memory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}
			if !cmd.Flags().Changed("redis") {
				redis = cfg.Server.RedisAddr
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.Server.TTL()
			}

			var store cache.Cache
			if redis != "" {
				rc, err := cache.NewRedisCache(ctx, redis)
				if err != nil {
					return fmt.Errorf("connect redis %s: %w", redis, err)
				}
				c.Logger.Info("Using redis cache", "addr", redis)
				store = rc
			} else {
				store = cache.NewMemoryCache()
			}
			defer store.Close()

			srv := server.New(cfg.Defaults, store, ttl, c.Logger)
			printSuccess(cmd.OutOrStdout(), "Listening on %s", addr)
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redis, "redis", "", "redis address for the shared plan cache")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "plan cache TTL")

	return cmd
}
