package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/tillsync/internal/policy"
)

// NewDaemonCommand создает команду фоновой синхронизации
func NewDaemonCommand(opts *RootOptions) *cobra.Command {
	var retention time.Duration

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Probe the cloud and drain the sync journal periodically",
		Long: `Runs until interrupted. Every sync interval the daemon checks cloud health,
switches the node online or offline accordingly, drains the journal and purges
old synced entries. When a policy file is configured it is reloaded on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				if err := n.coord.Initialize(ctx); err != nil {
					return err
				}
				n.logger.Info("Edge daemon started",
					"node_id", n.coord.NodeID(),
					"interval", opts.cfg.SyncInterval,
				)

				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					return syncLoop(gctx, n, opts.cfg.SyncInterval, retention)
				})
				if path := opts.cfg.PolicyFile; path != "" {
					g.Go(func() error {
						return policy.Watch(gctx, path, n.logger, n.coord.SetPolicy)
					})
				}

				err := g.Wait()
				n.logger.Info("Edge daemon stopped")
				return err
			})
		},
	}

	cmd.Flags().DurationVar(&retention, "retention", 7*24*time.Hour, "purge synced journal entries older than this")

	return cmd
}

func syncLoop(ctx context.Context, n *node, interval, retention time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		tick(ctx, n, retention)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick один цикл: проверка связи, синхронизация, очистка журнала
func tick(ctx context.Context, n *node, retention time.Duration) {
	_, err := n.cloud.Health(ctx)
	n.coord.SetOnline(err == nil)
	if err != nil {
		n.logger.Debug("Cloud is unreachable", "error", err)
		return
	}

	if _, err := n.coord.TriggerSync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		n.logger.Error("Synchronization failed", "error", err)
	}

	if _, err := n.coord.PurgeSynced(ctx, retention); err != nil && !errors.Is(err, context.Canceled) {
		n.logger.Error("Failed to purge journal", "error", err)
	}
}
