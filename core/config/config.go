package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"curachain/core/storage"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read on startup when present.
const DefaultEnvFile = "curachain.env"

// Config holds the node settings. Every field comes from the environment.
type Config struct {
	DataDir       string `env:"DATA_DIR" envDefault:"./data"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"leveldb"`
	APIListenAddr string `env:"API_LISTEN_ADDR" envDefault:":8080"`
	JWTSecret     string `env:"JWT_SECRET"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:"curachain"`
	DataKey       string `env:"DATA_KEY"` // base64 AES-256 key, empty disables sealing
	GenesisPath   string `env:"GENESIS_PATH" envDefault:"genesis.yaml"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	EnableHTTPS   bool   `env:"ENABLE_HTTPS" envDefault:"false"`
	TLSCertPath   string `env:"TLS_CERT_PATH"`
	TLSKeyPath    string `env:"TLS_KEY_PATH"`
}

// Load reads the given env files (missing ones are skipped) and parses the
// environment. Variables already set take precedence over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "leveldb", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 bytes")
	}
	if c.DataKey != "" {
		if _, err := storage.DecodeDataKey(c.DataKey); err != nil {
			return fmt.Errorf("DATA_KEY: %w", err)
		}
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.EnableHTTPS && (c.TLSCertPath == "" || c.TLSKeyPath == "") {
		return errors.New("ENABLE_HTTPS requires TLS_CERT_PATH and TLS_KEY_PATH")
	}
	return nil
}

// StoragePath is where the selected backend keeps its data.
func (c *Config) StoragePath() string {
	if c.StorageDriver == "sqlite" {
		return filepath.Join(c.DataDir, "ledger.db")
	}
	return filepath.Join(c.DataDir, "ledger")
}

// JournalPath is the genesis audit journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, "genesis_audit.log")
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// NewLogger builds the process logger.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", "curachain"), nil
}
