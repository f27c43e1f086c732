package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/tillsync/internal/edge/cloud"
	"github.com/iudanet/tillsync/internal/edge/hybrid"
	"github.com/iudanet/tillsync/internal/edge/storage/boltdb"
	"github.com/iudanet/tillsync/internal/policy"
)

// node собранный edge узел: локальное хранилище, клиент облака и координатор
type node struct {
	store  *boltdb.Storage
	cloud  *cloud.Client
	coord  *hybrid.Coordinator
	logger *slog.Logger
}

func openNode(ctx context.Context, opts *RootOptions) (*node, error) {
	cfg := opts.cfg

	store, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	n, err := assembleNode(ctx, opts, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return n, nil
}

func assembleNode(ctx context.Context, opts *RootOptions, store *boltdb.Storage) (*node, error) {
	cfg := opts.cfg

	nodeID := cfg.NodeID
	if nodeID == "" {
		id, err := store.NodeID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get node id: %w", err)
		}
		nodeID = id
	} else if err := store.SetNodeID(ctx, nodeID); err != nil {
		return nil, fmt.Errorf("failed to save node id: %w", err)
	}

	p := policy.Default()
	if cfg.PolicyFile != "" {
		loaded, err := policy.Load(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		p = loaded
	}

	client := cloud.New(cfg.ServerURL, cfg.AccessToken, cloud.WithTimeout(cfg.RequestTimeout))

	coord, err := hybrid.New(hybrid.Config{
		Cloud:     client,
		Edge:      store,
		Policy:    p,
		Logger:    opts.logger,
		NodeID:    nodeID,
		TenantID:  cfg.TenantID,
		BatchSize: cfg.BatchSize,
		Online:    cfg.Online,
	})
	if err != nil {
		return nil, err
	}

	return &node{store: store, cloud: client, coord: coord, logger: opts.logger}, nil
}

func (n *node) Close() error {
	return n.store.Close()
}

// runWithNode открывает узел на время выполнения fn
func runWithNode(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, n *node) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	n, err := openNode(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := n.Close(); err != nil {
			n.logger.Error("failed to close database", "error", err)
		}
	}()

	return fn(ctx, n)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
