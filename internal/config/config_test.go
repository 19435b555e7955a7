package config_test

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduplatform/internal/config"
)

const secret = "0123456789abcdef0123456789abcdef"

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.FromEnv(env(map[string]string{
			"JWT_SECRET": secret,
			"MYSQL_DSN":  "user:pass@/edu",
		}))
		require.NoError(t, err)

		assert.Equal(t, []byte(secret), cfg.JWTSecret)
		assert.False(t, cfg.Production)
		assert.Equal(t, ":8082", cfg.ListenAddr)
		assert.Empty(t, cfg.RedisAddr)
		assert.Equal(t, 5, cfg.LoginMaxAttempts)
		assert.Equal(t, 15*time.Minute, cfg.LoginWindow)
		assert.Empty(t, cfg.TrustedProxies)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := config.FromEnv(env(map[string]string{
			"JWT_SECRET":         secret,
			"MYSQL_DSN":          "user:pass@/edu",
			"APP_ENV":            "Production",
			"LISTEN_ADDR":        ":9000",
			"REDIS_ADDR":         "localhost:6379",
			"LOGIN_MAX_ATTEMPTS": "10",
			"LOGIN_WINDOW":       "1h",
			"TRUSTED_PROXIES":    "10.0.0.0/8, 192.0.2.7",
		}))
		require.NoError(t, err)

		assert.True(t, cfg.Production)
		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.Equal(t, 10, cfg.LoginMaxAttempts)
		assert.Equal(t, time.Hour, cfg.LoginWindow)
		assert.Equal(t, []netip.Prefix{
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("192.0.2.7/32"),
		}, cfg.TrustedProxies)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := config.FromEnv(env(map[string]string{"MYSQL_DSN": "x"}))
		assert.ErrorIs(t, err, config.ErrMissingSecret)
	})

	t.Run("weak secret", func(t *testing.T) {
		_, err := config.FromEnv(env(map[string]string{"JWT_SECRET": "secret", "MYSQL_DSN": "x"}))
		assert.ErrorIs(t, err, config.ErrWeakSecret)
	})

	t.Run("missing dsn", func(t *testing.T) {
		_, err := config.FromEnv(env(map[string]string{"JWT_SECRET": secret}))
		assert.ErrorIs(t, err, config.ErrMissingDSN)
	})

	t.Run("bad numbers", func(t *testing.T) {
		for k, v := range map[string]string{
			"LOGIN_MAX_ATTEMPTS": "zero",
			"LOGIN_WINDOW":       "-5m",
			"TRUSTED_PROXIES":    "10.0.0.0/8,proxy.internal",
		} {
			_, err := config.FromEnv(env(map[string]string{"JWT_SECRET": secret, "MYSQL_DSN": "x", k: v}))
			assert.Error(t, err, k)
		}
	})
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := config.ParseTrustedProxies(" 10.1.2.3/8 ,, ::ffff:203.0.113.5, 2001:db8::/32")
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("203.0.113.5/32"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, got)

	got, err = config.ParseTrustedProxies("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = config.ParseTrustedProxies("10.0.0.0/33")
	assert.ErrorContains(t, err, "TRUSTED_PROXIES")
}

func TestLoadFromDotenv(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(file, []byte(
		"JWT_SECRET="+secret+"\nMYSQL_DSN=user:pass@/edu\nLOGIN_MAX_ATTEMPTS=3\n",
	), 0o600))

	t.Setenv("START", file)
	// godotenv never overrides variables that are already set
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	t.Setenv("MYSQL_DSN", "")
	require.NoError(t, os.Unsetenv("MYSQL_DSN"))
	t.Setenv("LOGIN_MAX_ATTEMPTS", "")
	require.NoError(t, os.Unsetenv("LOGIN_MAX_ATTEMPTS"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.LoginMaxAttempts)
	assert.Equal(t, "user:pass@/edu", cfg.MySQLDSN)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("START", filepath.Join(t.TempDir(), "nope.env"))

	_, err := config.Load()
	assert.Error(t, err)
}
