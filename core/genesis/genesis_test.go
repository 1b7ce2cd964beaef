package genesis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curachain/core/crowdfund"
	"curachain/core/ledger"
	"curachain/core/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlGenesis = `chainId: curachain-test
genesisTime: 2025-06-01T00:00:00Z
administrator: admin-1
initialVerifiers:
  - verifier-1
  - verifier-2
  - verifier-3
thresholds:
  participationPct: 60
  approvalPct: 75
  rejectionPct: 25
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "genesis.yaml", yamlGenesis))
	require.NoError(t, err)
	assert.Equal(t, "curachain-test", cfg.ChainID)
	assert.Equal(t, "admin-1", cfg.Administrator)
	assert.Len(t, cfg.InitialVerifiers, 3)
	assert.Equal(t, crowdfund.Thresholds{ParticipationPct: 60, ApprovalPct: 75, RejectionPct: 25}, cfg.VotingThresholds())
	assert.Equal(t, 2025, cfg.GenesisTime.Year())
}

func TestLoadConfigJSON(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "genesis.json", `{"chainId":"c","administrator":"a","initialVerifiers":["v"]}`))
	require.NoError(t, err)
	assert.Equal(t, crowdfund.DefaultThresholds(), cfg.VotingThresholds())
	assert.Equal(t, "genesis:c", cfg.Initializer())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no admin":       `{"chainId":"c"}`,
		"no chain":       `{"administrator":"a"}`,
		"dup verifier":   `{"chainId":"c","administrator":"a","initialVerifiers":["v","v"]}`,
		"bad thresholds": `{"chainId":"c","administrator":"a","thresholds":{"participationPct":0,"approvalPct":70,"rejectionPct":30}}`,
		"not json":       `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "genesis.json", body))
			assert.Error(t, err)
		})
	}
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func newEngine(t *testing.T, cfg *Config) *crowdfund.Engine {
	t.Helper()
	store, err := storage.NewMemLevelStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	l, err := ledger.New(store)
	require.NoError(t, err)
	engine, err := crowdfund.NewEngine(l, crowdfund.WithThresholds(cfg.VotingThresholds()))
	require.NoError(t, err)
	return engine
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{ChainID: "c", Administrator: "admin-1", InitialVerifiers: []string{"v1", "v2", "v3"}}
	engine := newEngine(t, cfg)
	journal := &Journal{Path: filepath.Join(t.TempDir(), "genesis_audit.log")}

	res, err := Bootstrap(ctx, engine, cfg, journal, nil)
	require.NoError(t, err)
	assert.True(t, res.AdminInitialized)
	assert.True(t, res.RegistryInitialized)
	assert.Equal(t, []string{"v1", "v2", "v3"}, res.VerifiersAdded)
	assert.Len(t, res.JournalRoot, 64)

	raw, err := os.ReadFile(journal.Path)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(raw), "\n"))

	// an operator removes a verifier; restarting must not bring it back
	_, err = engine.AddOrRemoveVerifier(ctx, "admin-1", "v2", crowdfund.VerifierRemove)
	require.NoError(t, err)
	head := engine.Ledger().Head().Seq

	res, err = Bootstrap(ctx, engine, cfg, journal, nil)
	require.NoError(t, err)
	assert.False(t, res.AdminInitialized)
	assert.False(t, res.RegistryInitialized)
	assert.Empty(t, res.VerifiersAdded)
	assert.Equal(t, head, engine.Ledger().Head().Seq)

	active, err := engine.IsVerifier(ctx, "v2")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestBootstrapRejectsForeignAdministrator(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{ChainID: "c", Administrator: "admin-1"}
	engine := newEngine(t, cfg)
	_, err := Bootstrap(ctx, engine, cfg, nil, nil)
	require.NoError(t, err)

	other := &Config{ChainID: "c", Administrator: "admin-2"}
	_, err = Bootstrap(ctx, engine, other, nil, nil)
	assert.ErrorIs(t, err, crowdfund.ErrUnauthorized)
}

func TestJournalMerkleRoot(t *testing.T) {
	j := &Journal{Path: filepath.Join(t.TempDir(), "j.log")}
	root, err := j.MerkleRoot()
	require.NoError(t, err)
	assert.Empty(t, root)

	require.NoError(t, j.Append("a", map[string]int{"n": 1}))
	first, err := j.MerkleRoot()
	require.NoError(t, err)
	require.NoError(t, j.Append("b", map[string]int{"n": 2}))
	second, err := j.MerkleRoot()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	var nilJournal *Journal
	assert.NoError(t, nilJournal.Append("x", nil))
}
