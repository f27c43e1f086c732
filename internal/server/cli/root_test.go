package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tillsync/internal/config"
	"github.com/iudanet/tillsync/internal/server/handlers"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(BuildInfo{Version: "1.2.3", BuildDate: "2026-10-01", GitCommit: "abc123"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand(BuildInfo{})

	for _, name := range []string{"serve", "token", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	flags := cmd.PersistentFlags()
	require.NotNil(t, flags.Lookup("jwt-secret"))
	assert.Equal(t, "tillsync.db", flags.Lookup("db").DefValue)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	require.NotNil(t, serve.Flags().Lookup("addr"))
	assert.Equal(t, ":8080", serve.Flags().Lookup("addr").DefValue)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    1.2.3")
	assert.Contains(t, out, "Git Commit: abc123")
}

func TestTokenCommand(t *testing.T) {
	secret := "server-cli-test-secret"

	out, err := execute(t, "token", "--tenant", "acme", "--node", "till-1", "--jwt-secret", secret)
	require.NoError(t, err)

	claims, err := handlers.ValidateAccessToken(handlers.JWTConfig{Secret: []byte(secret)}, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, "till-1", claims.NodeID)
	assert.Nil(t, claims.ExpiresAt)

	out, err = execute(t, "token", "--tenant", "acme", "--ttl", "1h", "--jwt-secret", secret)
	require.NoError(t, err)
	claims, err = handlers.ValidateAccessToken(handlers.JWTConfig{Secret: []byte(secret)}, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestTokenCommand_RequiresSecret(t *testing.T) {
	_, err := execute(t, "token", "--tenant", "acme")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
