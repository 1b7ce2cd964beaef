package config

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "leveldb", cfg.StorageDriver)
	assert.Equal(t, ":8080", cfg.APIListenAddr)
	assert.Equal(t, "curachain", cfg.JWTIssuer)
	assert.False(t, cfg.EnableHTTPS)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join("data", "ledger"), cfg.StoragePath())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.env")
	require.NoError(t, os.WriteFile(path, []byte("STORAGE_DRIVER=sqlite\nLOG_FORMAT=json\nJWT_SECRET=from-file-secret-123\n"), 0o600))
	// keep the process env clean for the keys the file sets
	for _, k := range []string{"STORAGE_DRIVER", "LOG_FORMAT", "JWT_SECRET"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("DATA_DIR", "/var/lib/curachain")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/var/lib/curachain", cfg.DataDir)
	assert.Equal(t, filepath.Join("/var/lib/curachain", "ledger.db"), cfg.StoragePath())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{StorageDriver: "leveldb", JWTSecret: "0123456789abcdef", LogLevel: "info", LogFormat: "text"}
	}
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

	good := base()
	good.DataKey = key
	assert.NoError(t, good.Validate())

	cases := map[string]func(c *Config){
		"driver":       func(c *Config) { c.StorageDriver = "postgres" },
		"short secret": func(c *Config) { c.JWTSecret = "short" },
		"bad key":      func(c *Config) { c.DataKey = "AAAA" },
		"level":        func(c *Config) { c.LogLevel = "loud" },
		"format":       func(c *Config) { c.LogFormat = "xml" },
		"https":        func(c *Config) { c.EnableHTTPS = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "event", "test")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"service":"curachain"`)

	_, err = NewLogger(&buf, "verbose", "text")
	assert.Error(t, err)
}
