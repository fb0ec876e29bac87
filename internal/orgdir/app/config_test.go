package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{
		"DATABASE_FILE", "TOKEN_SECRET", "TOKEN_ALGORITHM", "TOKEN_TTL",
		"PARTITION_RENAME_STRATEGY", "LOCK_TIMEOUT", "PORT", "ENV",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "orgdir.db", cfg.DatabaseFile)
	require.Equal(t, "HS256", cfg.TokenAlgorithm)
	require.Equal(t, 15*time.Minute, cfg.TokenTTL)
	require.Equal(t, "atomic", cfg.RenameStrategy)
	require.Equal(t, 10*time.Second, cfg.LockTimeout)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "dev", cfg.Env)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_FILE", "/data/orgdir.db")
	t.Setenv("TOKEN_ALGORITHM", "HS512")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("PARTITION_RENAME_STRATEGY", "copy")
	t.Setenv("REPAIR_INTERVAL", "30") // bare minutes
	t.Setenv("PORT", "not-a-number")
	t.Setenv("RATELIMIT_STRICT_REQUESTS", "2")

	cfg := LoadConfig()
	require.Equal(t, "/data/orgdir.db", cfg.DatabaseFile)
	require.Equal(t, "HS512", cfg.TokenAlgorithm)
	require.Equal(t, time.Hour, cfg.TokenTTL)
	require.Equal(t, "copy", cfg.RenameStrategy)
	require.Equal(t, 30*time.Minute, cfg.RepairInterval)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 2, cfg.RateLimits.Strict.RequestsPerWindow)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			TokenSecret:    strings.Repeat("x", 32),
			TokenAlgorithm: "HS256",
			TokenTTL:       time.Minute,
			RenameStrategy: "atomic",
			Env:            "prod",
			Port:           8080,
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing secret in prod", func(c *Config) { c.TokenSecret = "" }, "TOKEN_SECRET is required"},
		{"short secret", func(c *Config) { c.TokenSecret = "short" }, "at least 32 bytes"},
		{"asymmetric algorithm", func(c *Config) { c.TokenAlgorithm = "RS256" }, "TOKEN_ALGORITHM"},
		{"unknown strategy", func(c *Config) { c.RenameStrategy = "teleport" }, "teleport"},
		{"bad port", func(c *Config) { c.Port = 0 }, "PORT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("dev may omit the secret", func(t *testing.T) {
		cfg := valid()
		cfg.Env = "dev"
		cfg.TokenSecret = ""
		require.NoError(t, cfg.Validate())
	})
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ORGDIR_TEST_FROM_FILE=file\nORGDIR_TEST_PRESET=file\n"), 0o600))

	t.Setenv("ORGDIR_TEST_PRESET", "env")
	t.Setenv("ORGDIR_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("ORGDIR_TEST_FROM_FILE"))

	require.NoError(t, LoadEnvFile(path))
	require.Equal(t, "file", os.Getenv("ORGDIR_TEST_FROM_FILE"))
	require.Equal(t, "env", os.Getenv("ORGDIR_TEST_PRESET"))

	require.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
	require.NoError(t, LoadEnvFile(""))
}
