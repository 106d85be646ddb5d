package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noDotenv points Load at a file that does not exist.
func noDotenv(t *testing.T) {
	t.Helper()
	orig := dotenvPath
	dotenvPath = filepath.Join(t.TempDir(), "missing.env")
	t.Cleanup(func() { dotenvPath = orig })
}

func TestLoad_Defaults(t *testing.T) {
	noDotenv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Empty(t, cfg.Reference.File)
	assert.Empty(t, cfg.Blocklist.Dir)
	assert.Empty(t, cfg.Blocklist.DB)
	assert.InDelta(t, 0.001, cfg.Blocklist.FPRate, 1e-12)
	assert.Equal(t, 4096, cfg.Cache.Size)
	assert.Equal(t, DEFAULT_APP_CONFIG.Scoring, cfg.Scoring)
	assert.Empty(t, cfg.Wallet.Upstream)
	assert.Equal(t, []string{"eth_sign", "personal_sign"}, cfg.Wallet.BlockedMethods)
	assert.Equal(t, 10, cfg.Wallet.TimeoutSeconds)
}

func TestLoad_ValidOverrides(t *testing.T) {
	noDotenv(t)
	t.Setenv("GUARD_ENV", "dev")
	t.Setenv("GUARD_LOG_LEVEL", "debug")
	t.Setenv("GUARD_HTTP_ADDR", "127.0.0.1:9090")
	t.Setenv("GUARD_REFERENCE_FILE", "/etc/crypto-guard/reference.yaml")
	t.Setenv("GUARD_BLOCKLIST_DIR", "/etc/crypto-guard/blocklist.d")
	t.Setenv("GUARD_BLOCKLIST_DB", "/var/lib/crypto-guard/blocklist.db")
	t.Setenv("GUARD_BLOCKLIST_FP_RATE", "0.01")
	t.Setenv("GUARD_CACHE_SIZE", "0")
	t.Setenv("GUARD_SCORING_WEIGHT_AT_SIGN", "5")
	t.Setenv("GUARD_SCORING_WARN_THRESHOLD", "3")
	t.Setenv("GUARD_SCORING_BLOCK_THRESHOLD", "6")
	t.Setenv("GUARD_SCORING_MAX_BRAND_DISTANCE", "1")
	t.Setenv("GUARD_WALLET_UPSTREAM", "https://rpc.example/a, https://rpc.example/b")
	t.Setenv("GUARD_WALLET_BLOCKED_METHODS", "eth_sign")
	t.Setenv("GUARD_WALLET_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTP.Addr)
	assert.Equal(t, "/etc/crypto-guard/reference.yaml", cfg.Reference.File)
	assert.Equal(t, "/etc/crypto-guard/blocklist.d", cfg.Blocklist.Dir)
	assert.Equal(t, "/var/lib/crypto-guard/blocklist.db", cfg.Blocklist.DB)
	assert.InDelta(t, 0.01, cfg.Blocklist.FPRate, 1e-12)
	assert.Zero(t, cfg.Cache.Size)
	assert.Equal(t, 5, cfg.Scoring.WeightAtSign)
	assert.Equal(t, 4, cfg.Scoring.WeightPunycode)
	assert.Equal(t, 3, cfg.Scoring.WarnThreshold)
	assert.Equal(t, 6, cfg.Scoring.BlockThreshold)
	assert.Equal(t, 1, cfg.Scoring.MaxBrandDistance)
	assert.Equal(t, []string{"https://rpc.example/a", "https://rpc.example/b"}, cfg.Wallet.Upstream)
	assert.Equal(t, []string{"eth_sign"}, cfg.Wallet.BlockedMethods)
	assert.Equal(t, 3, cfg.Wallet.TimeoutSeconds)
}

func TestLoad_Dotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GUARD_CACHE_SIZE=12\nGUARD_LOG_LEVEL=warn\n"), 0o600))

	orig := dotenvPath
	dotenvPath = path
	t.Cleanup(func() {
		dotenvPath = orig
		_ = os.Unsetenv("GUARD_CACHE_SIZE")
	})
	// already set: the file must not override it
	t.Setenv("GUARD_LOG_LEVEL", "error")
	_ = os.Unsetenv("GUARD_CACHE_SIZE")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Cache.Size)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoad_DotenvUnreadable(t *testing.T) {
	orig := dotenvPath
	dotenvPath = t.TempDir() // a directory, not a file
	t.Cleanup(func() { dotenvPath = orig })

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"env", "GUARD_ENV", "staging"},
		{"log level", "GUARD_LOG_LEVEL", "verbose"},
		{"listen addr", "GUARD_HTTP_ADDR", "localhost"},
		{"listen port", "GUARD_HTTP_ADDR", ":70000"},
		{"fp rate", "GUARD_BLOCKLIST_FP_RATE", "1.5"},
		{"cache size", "GUARD_CACHE_SIZE", "-1"},
		{"negative weight", "GUARD_SCORING_WEIGHT_PUNYCODE", "-2"},
		{"block below warn", "GUARD_SCORING_BLOCK_THRESHOLD", "4"},
		{"zero warn", "GUARD_SCORING_WARN_THRESHOLD", "0"},
		{"brand distance", "GUARD_SCORING_MAX_BRAND_DISTANCE", "0"},
		{"upstream url", "GUARD_WALLET_UPSTREAM", "not-a-url"},
		{"timeout", "GUARD_WALLET_TIMEOUT_SECONDS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noDotenv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoad_NotANumber(t *testing.T) {
	noDotenv(t)
	t.Setenv("GUARD_CACHE_SIZE", "lots")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error unmarshalling config")
}

func TestLoad_WhenKoanfDefaultLoadFails(t *testing.T) {
	noDotenv(t)
	orig := defaultLoader
	defaultLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { defaultLoader = orig }()

	_, err := Load()
	assert.ErrorContains(t, err, "error loading default config")
}

func TestLoad_WhenKoanfEnvLoadFails(t *testing.T) {
	noDotenv(t)
	orig := envLoader
	envLoader = func(k *koanf.Koanf) error { return errors.New("mocked error") }
	defer func() { envLoader = orig }()

	_, err := Load()
	assert.ErrorContains(t, err, "error loading env")
}

func TestLoad_RegisterValidationFails(t *testing.T) {
	noDotenv(t)
	orig := registerValidation
	registerValidation = func(v *validator.Validate) error { return errors.New("mocked validation error") }
	defer func() { registerValidation = orig }()

	_, err := Load()
	assert.ErrorContains(t, err, "error registering validation")
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"GUARD_ENV":                         "env",
		"GUARD_LOG_LEVEL":                   "log.level",
		"GUARD_HTTP_ADDR":                   "http.addr",
		"GUARD_BLOCKLIST_FP_RATE":           "blocklist.fp_rate",
		"GUARD_SCORING_WEIGHT_HOST_KEYWORD": "scoring.weight_host_keyword",
		"GUARD_WALLET_BLOCKED_METHODS":      "wallet.blocked_methods",
		"GUARD_CACHE_SIZE":                  "cache.size",
		"GUARD_UNKNOWN_THING":               "unknown_thing",
		"GUARD_CACHE_":                      "cache_",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestValidListenAddr(t *testing.T) {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("listen_addr", validListenAddr))

	good := []string{":8080", "127.0.0.1:0", "[::1]:443", "localhost:9000"}
	bad := []string{"", "8080", "localhost", ":", ":http", "host name:80", "a/b:80", ":65536"}
	for _, addr := range good {
		assert.NoError(t, v.Var(addr, "listen_addr"), addr)
	}
	for _, addr := range bad {
		assert.Error(t, v.Var(addr, "listen_addr"), addr)
	}
}

func TestDefaultLoader_LoadsDefaults(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, defaultLoader(k))
	assert.Equal(t, "prod", k.String("env"))
	assert.Equal(t, ":8080", k.String("http.addr"))
	assert.Equal(t, 8, k.Int("scoring.block_threshold"))
}
