package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/tillsync/internal/edge/hybrid"
	"github.com/iudanet/tillsync/internal/models"
)

// NewSyncCommand создает команду однократной синхронизации журнала
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Drain the sync journal to the cloud",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				res, err := n.coord.TriggerSync(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

// NewStatusCommand создает команду вывода состояния журнала
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sync journal statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				if err := n.coord.Initialize(ctx); err != nil {
					return err
				}
				if pending {
					return printJSON(cmd.OutOrStdout(), n.coord.GetPendingSyncEntries())
				}
				stats, err := n.coord.GetSyncStats(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), struct {
					NodeID string `json:"node_id"`
					*hybrid.SyncStats
				}{NodeID: n.coord.NodeID(), SyncStats: stats})
			})
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "list entries waiting for sync instead of counters")

	return cmd
}

// NewConflictsCommand создает команду вывода конфликтов
func NewConflictsCommand(opts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "List sync conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				conflicts, err := n.coord.GetConflicts(ctx, !all)
				if err != nil {
					return err
				}
				if conflicts == nil {
					conflicts = []*models.SyncConflict{}
				}
				return printJSON(cmd.OutOrStdout(), conflicts)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include resolved conflicts")

	return cmd
}

// NewResolveCommand создает команду разрешения конфликта
func NewResolveCommand(opts *RootOptions) *cobra.Command {
	var (
		strategy string
		data     string
		by       string
	)

	cmd := &cobra.Command{
		Use:   "resolve <conflict-id>",
		Short: "Resolve a sync conflict",
		Example: `  tillsync-edge resolve 0192... --strategy remote_wins
  tillsync-edge resolve 0192... --strategy manual --data '{"total_cents":1500}' --by manager-7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolution := models.Resolution(strategy)
			if !resolution.Valid() {
				return fmt.Errorf("unknown strategy %q (local_wins|remote_wins|manual)", strategy)
			}

			var payload json.RawMessage
			if data != "" {
				if !json.Valid([]byte(data)) {
					return fmt.Errorf("--data is not valid JSON")
				}
				payload = json.RawMessage(data)
			}

			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				resolved, err := n.coord.ResolveConflict(ctx, args[0], resolution, payload, by)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resolved)
			})
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "local_wins, remote_wins or manual")
	cmd.Flags().StringVar(&data, "data", "", "merged row for manual resolution (JSON)")
	cmd.Flags().StringVar(&by, "by", "", "who resolved the conflict (defaults to node id)")
	_ = cmd.MarkFlagRequired("strategy")

	return cmd
}

// NewPurgeCommand создает команду очистки синхронизированных записей журнала
func NewPurgeCommand(opts *RootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove synced journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithNode(cmd, opts, func(ctx context.Context, n *node) error {
				purged, err := n.coord.PurgeSynced(ctx, olderThan)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"purged": purged})
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "keep synced entries younger than this")

	return cmd
}
