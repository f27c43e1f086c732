package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/tillsync/internal/server"
	"github.com/iudanet/tillsync/internal/server/handlers"
	"github.com/iudanet/tillsync/internal/server/middleware"
	"github.com/iudanet/tillsync/internal/server/storage/sqlite"
)

// NewServeCommand создает команду запуска HTTP сервера
func NewServeCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			cfg := opts.cfg
			logger := opts.logger
			ctx := cmd.Context()

			logger.Info("Starting tillsync server",
				"version", opts.build.Version,
				"commit", opts.build.GitCommit,
			)

			db, err := sqlite.New(ctx, cfg.DBPath, sqlite.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					logger.Error("failed to close database", "error", err)
				}
			}()

			var limiter *middleware.RateLimiter
			if cfg.RateLimit > 0 {
				limiter = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, logger)
				defer limiter.Stop()
			}

			router := server.NewRouter(server.RouterConfig{
				Logger:  logger,
				Stores:  server.SQLiteTenants(db),
				DB:      db,
				Limiter: limiter,
				Version: opts.build.Version,
				JWT: handlers.JWTConfig{
					Secret:   []byte(cfg.JWTSecret),
					TokenTTL: cfg.TokenTTL,
				},
			})

			return server.Serve(ctx, logger, cfg.Addr, router)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = opts.v.BindPFlag("addr", cmd.Flags().Lookup("addr"))

	return cmd
}
