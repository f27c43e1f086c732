// Package cli содержит команды edge узла tillsync.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iudanet/tillsync/internal/config"
	"github.com/iudanet/tillsync/internal/logging"
)

// RootOptions общие флаги и собранная конфигурация для всех команд
type RootOptions struct {
	logger    *slog.Logger
	logCloser io.Closer
	v         *viper.Viper
	cfg       *config.EdgeConfig

	ConfigFile string
}

// NewRootCommand создает корневую команду edge узла
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: config.New()}
	config.SetEdgeDefaults(opts.v)

	cmd := &cobra.Command{
		Use:   "tillsync-edge",
		Short: "tillsync edge node",
		Long: `Store-local node of tillsync. Works against the cloud while it is reachable
and keeps accepting writes offline, queuing them in the sync journal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "config file (yaml, toml or json)")
	flags.String("db", "tillsync-edge.db", "path to the local database")
	flags.String("server", "http://localhost:8080", "cloud server URL")
	flags.String("token", "", "tenant access token")
	flags.String("node", "", "edge node id (generated and stored when empty)")
	flags.String("tenant", "", "tenant id")
	flags.String("policy", "", "table write policy file")
	flags.Bool("online", true, "route operations to the cloud")
	flags.Int("batch-size", 0, "drain through batch sync when greater than 1")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("log-format", "text", "log format (text|json)")

	for key, flag := range map[string]string{
		"db_path":      "db",
		"server_url":   "server",
		"access_token": "token",
		"node_id":      "node",
		"tenant_id":    "tenant",
		"policy_file":  "policy",
		"online":       "online",
		"batch_size":   "batch-size",
		"log.level":    "log-level",
		"log.format":   "log-format",
	} {
		// Lookup не вернёт nil: флаги объявлены выше
		_ = opts.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewConflictsCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewCompleteOrderCommand(opts))
	cmd.AddCommand(NewTransferCommand(opts))
	cmd.AddCommand(NewDaemonCommand(opts))

	return cmd
}

// load читает файл конфигурации, окружение и флаги, затем строит логгер
func (o *RootOptions) load(cmd *cobra.Command) error {
	if err := config.ReadFile(o.v, o.ConfigFile); err != nil {
		return err
	}
	cfg, err := config.LoadEdge(o.v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	o.cfg = cfg
	o.logger, o.logCloser = logging.New(cfg.Log, cmd.ErrOrStderr())
	return nil
}
