package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/tillsync/internal/server/handlers"
)

// NewTokenCommand создает команду выпуска токена для edge узла
func NewTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		tenant string
		node   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue an access token for an edge node",
		Example: `  tillsync-server token --tenant acme --node till-1 --jwt-secret "$SECRET"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}

			jwtCfg := handlers.JWTConfig{Secret: []byte(opts.cfg.JWTSecret), TokenTTL: opts.cfg.TokenTTL}
			if cmd.Flags().Changed("ttl") {
				jwtCfg.TokenTTL = ttl
			}

			token, err := handlers.GenerateTenantToken(jwtCfg, tenant, node)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&node, "node", "", "edge node id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (0 = no expiry)")
	_ = cmd.MarkFlagRequired("tenant")

	return cmd
}
