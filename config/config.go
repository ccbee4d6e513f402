package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// GenesisConfig describes the chain's initial validator set.
type GenesisConfig struct {
	ChainID    string            `json:"chain_id" yaml:"chain_id"`
	Validators map[string]uint64 `json:"validators" yaml:"validators"` // pubkey hex → voting power
}

// Config holds all node configuration.
type Config struct {
	NodeID      string        `json:"node_id" yaml:"node_id"`
	DataDir     string        `json:"data_dir" yaml:"data_dir"`
	LogLevel    string        `json:"log_level" yaml:"log_level"`
	MetricsAddr string        `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"` // empty → metrics disabled
	MaxBlockTxs int           `json:"max_block_txs" yaml:"max_block_txs"`                   // max transactions per block; DefaultConfig sets 500
	Proposers   []string      `json:"proposers" yaml:"proposers"`                           // authorised block-proposer pubkey hexes
	Genesis     GenesisConfig `json:"genesis" yaml:"genesis"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:      "node0",
		DataDir:     "./data",
		LogLevel:    "info",
		MaxBlockTxs: 500,
		Genesis: GenesisConfig{
			ChainID:    "tolchain-election-dev",
			Validators: map[string]uint64{},
		},
	}
}

// Load reads a config file from path and validates required fields. The
// format is chosen by extension: .yaml/.yml uses YAML, anything else JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// Validate checks that all required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Genesis.ChainID == "" {
		return fmt.Errorf("genesis.chain_id must not be empty")
	}
	if len(c.Genesis.Validators) == 0 {
		return fmt.Errorf("genesis.validators must not be empty")
	}
	for pk, power := range c.Genesis.Validators {
		b, err := hex.DecodeString(pk)
		if err != nil || len(b) != 32 {
			return fmt.Errorf("genesis.validators: %q must be 64-char hex (32 bytes ed25519 pubkey)", pk)
		}
		if power == 0 {
			return fmt.Errorf("genesis.validators: %q has zero voting power", pk)
		}
	}
	for i, v := range c.Proposers {
		b, err := hex.DecodeString(v)
		if err != nil || len(b) != 32 {
			return fmt.Errorf("proposers[%d]: must be 64-char hex (32 bytes ed25519 pubkey), got %q", i, v)
		}
	}
	return nil
}

// Save writes the config to path as formatted JSON or YAML, chosen by
// path's extension the same way Load picks its reader.
func Save(cfg *Config, path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
