package genesis

import (
	"errors"
	"fmt"
	"time"

	"curachain/core/crowdfund"
)

// Config is the genesis file schema.
type Config struct {
	ChainID          string                `json:"chainId" yaml:"chainId"`
	GenesisTime      time.Time             `json:"genesisTime" yaml:"genesisTime"`
	Administrator    string                `json:"administrator" yaml:"administrator"`
	InitialVerifiers []string              `json:"initialVerifiers" yaml:"initialVerifiers"`
	Thresholds       *crowdfund.Thresholds `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// Initializer is the identity recorded as having installed the administrator.
func (c *Config) Initializer() string {
	return "genesis:" + c.ChainID
}

// VotingThresholds returns the configured thresholds or the defaults.
func (c *Config) VotingThresholds() crowdfund.Thresholds {
	if c.Thresholds == nil {
		return crowdfund.DefaultThresholds()
	}
	return *c.Thresholds
}

func (c *Config) Validate() error {
	if c.ChainID == "" {
		return errors.New("genesis: chainId is required")
	}
	if c.Administrator == "" {
		return errors.New("genesis: administrator is required")
	}
	seen := map[string]bool{}
	for _, v := range c.InitialVerifiers {
		if v == "" {
			return errors.New("genesis: empty verifier identity")
		}
		if seen[v] {
			return fmt.Errorf("genesis: verifier %s listed twice", v)
		}
		seen[v] = true
	}
	if err := c.VotingThresholds().Validate(); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	return nil
}
