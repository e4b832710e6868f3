package wire

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botrelay/internal/config"
	"botrelay/internal/relay"
)

func TestProvideGuard(t *testing.T) {
	t.Run("memory without REDIS_URL", func(t *testing.T) {
		cfg := &config.Config{Relay: config.RelayConfig{GuardTTL: time.Minute}}

		guard, cleanup, err := ProvideGuard(cfg, zerolog.Nop())
		require.NoError(t, err)
		defer cleanup()
		assert.IsType(t, &relay.MemoryGuard{}, guard)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{
			Redis: config.RedisConfig{URL: "redis://" + mr.Addr()},
			Relay: config.RelayConfig{GuardTTL: time.Minute},
		}

		guard, cleanup, err := ProvideGuard(cfg, zerolog.Nop())
		require.NoError(t, err)
		defer cleanup()
		assert.IsType(t, &relay.RedisGuard{}, guard)

		ok, err := guard.Claim(context.Background(), "m1:bot-a")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := &config.Config{Redis: config.RedisConfig{URL: "redis://" + addr}}
		_, _, err := ProvideGuard(cfg, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestProvideRuleset(t *testing.T) {
	rules, err := ProvideRuleset(&config.Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, rules.Rules)

	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - name: only\n    pattern: '^x'\n"), 0o600))

	rules, err = ProvideRuleset(&config.Config{Relay: config.RelayConfig{PatternsFile: path}})
	require.NoError(t, err)
	require.Len(t, rules.Rules, 1)
	assert.Equal(t, "only", rules.Rules[0].Name)

	_, err = ProvideRuleset(&config.Config{Relay: config.RelayConfig{PatternsFile: filepath.Join(t.TempDir(), "missing.yaml")}})
	assert.Error(t, err)
}

func TestProvideTokenIssuer_DevelopmentSecret(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{TokenTTL: time.Hour}}

	token, err := ProvideTokenIssuer(cfg, zerolog.Nop()).GenerateToken("user-1", "Alice")
	require.NoError(t, err)

	claims, err := ProvideTokenIssuer(cfg, zerolog.Nop()).ValidToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}
