// Package cli содержит команды облачного сервера tillsync.
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

// BuildInfo версия сборки, задаётся через ldflags в main
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// RootOptions общие флаги и собранная конфигурация сервера
type RootOptions struct {
	logger    *slog.Logger
	logCloser io.Closer
	v         *viper.Viper
	cfg       *config.ServerConfig
	build     BuildInfo

	ConfigFile string
}

// NewRootCommand создает корневую команду сервера
func NewRootCommand(build BuildInfo) *cobra.Command {
	opts := &RootOptions{v: config.New(), build: build}
	config.SetServerDefaults(opts.v)

	cmd := &cobra.Command{
		Use:          "tillsync-server",
		Short:        "tillsync cloud server",
		Long:         "Multi-tenant cloud store for tillsync edge nodes.",
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "config file (yaml, toml or json)")
	flags.String("db", "tillsync.db", "path to the sqlite database")
	flags.String("jwt-secret", "", "secret used to sign node tokens")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("log-format", "text", "log format (text|json)")

	for key, flag := range map[string]string{
		"db_path":    "db",
		"jwt_secret": "jwt-secret",
		"log.level":  "log-level",
		"log.format": "log-format",
	} {
		_ = opts.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// load читает конфигурацию и строит логгер. Вызывается командами, которым нужен сервер.
func (o *RootOptions) load(cmd *cobra.Command) error {
	if err := config.ReadFile(o.v, o.ConfigFile); err != nil {
		return err
	}
	cfg, err := config.LoadServer(o.v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	o.cfg = cfg
	o.logger, o.logCloser = logging.New(cfg.Log, cmd.ErrOrStderr())
	return nil
}
