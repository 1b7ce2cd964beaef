package genesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"curachain/core/crowdfund"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a genesis file. .yaml and .yml are parsed as YAML,
// anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read genesis config: %w", err)
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	default:
		err = json.Unmarshal(raw, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse genesis config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Result summarizes what Bootstrap changed.
type Result struct {
	AdminInitialized    bool     `json:"adminInitialized"`
	RegistryInitialized bool     `json:"registryInitialized"`
	VerifiersAdded      []string `json:"verifiersAdded"`
	JournalRoot         string   `json:"journalRoot,omitempty"`
}

// Bootstrap brings an empty ledger to the genesis state. It is safe to run
// on every start: steps already applied are skipped, and the initial
// verifiers are only added together with a fresh registry so later removals
// survive restarts.
func Bootstrap(ctx context.Context, engine *crowdfund.Engine, cfg *Config, journal *Journal, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("module", "genesis", "chain_id", cfg.ChainID)
	res := &Result{VerifiersAdded: []string{}}

	_, err := engine.InitializeAdministrator(ctx, cfg.Initializer(), cfg.Administrator)
	switch {
	case err == nil:
		res.AdminInitialized = true
		logger.Info("administrator initialized", "admin", cfg.Administrator)
		_ = journal.Append("administrator_initialized", map[string]any{"admin": cfg.Administrator})
	case errors.Is(err, crowdfund.ErrAlreadyInitialized):
		logger.Debug("administrator already present")
	default:
		return nil, fmt.Errorf("initialize administrator: %w", err)
	}

	_, err = engine.InitializeRegistry(ctx, cfg.Administrator)
	switch {
	case err == nil:
		res.RegistryInitialized = true
		_ = journal.Append("registry_initialized", map[string]any{"thresholds": engine.Thresholds()})
	case errors.Is(err, crowdfund.ErrAlreadyInitialized):
		logger.Debug("registry already present")
	case errors.Is(err, crowdfund.ErrUnauthorized):
		return nil, fmt.Errorf("genesis administrator %s does not match the ledger: %w", cfg.Administrator, err)
	default:
		return nil, fmt.Errorf("initialize registry: %w", err)
	}

	if res.RegistryInitialized {
		for _, v := range cfg.InitialVerifiers {
			if _, err := engine.AddOrRemoveVerifier(ctx, cfg.Administrator, v, crowdfund.VerifierAdd); err != nil {
				return nil, fmt.Errorf("add verifier %s: %w", v, err)
			}
			res.VerifiersAdded = append(res.VerifiersAdded, v)
		}
		_ = journal.Append("verifier_set", map[string]any{"verifiers": res.VerifiersAdded})
	}

	if res.AdminInitialized || res.RegistryInitialized {
		root, err := journal.MerkleRoot()
		if err != nil {
			logger.Warn("journal root unavailable", "error", err)
		} else {
			res.JournalRoot = root
			_ = journal.Append("journal_root", map[string]any{"merkleRoot": root, "ledgerSeq": engine.Ledger().Head().Seq})
		}
		logger.Info("genesis applied", "verifiers", len(res.VerifiersAdded), "journal_root", res.JournalRoot)
	}
	return res, nil
}
