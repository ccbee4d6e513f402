package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/crypto"
	"github.com/tolchain/election/validator"
)

// GenesisHash is a canonical all-zeros previous hash for the genesis block.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ValidatorRecorder is the subset of storage.ChainStore genesis bootstrap
// needs, kept narrow so config does not depend on the concrete storage
// package.
type ValidatorRecorder interface {
	RecordValidatorChange(change *validator.ValidatorChange) error
}

// CreateGenesisBlock seeds the validator set from cfg.Genesis.Validators at
// height 0 and builds and signs the empty genesis block #0.
func CreateGenesisBlock(cfg *Config, recorder ValidatorRecorder, proposerPriv crypto.PrivateKey) (*core.Block, error) {
	proposerPub := proposerPriv.Public()

	vals := make([]validator.Validator, 0, len(cfg.Genesis.Validators))
	for pk, power := range cfg.Genesis.Validators {
		vals = append(vals, validator.Validator{PublicKey: pk, VotingPower: power})
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i].PublicKey < vals[j].PublicKey })
	if err := recorder.RecordValidatorChange(&validator.ValidatorChange{Height: 0, Validators: vals}); err != nil {
		return nil, fmt.Errorf("seed genesis validators: %w", err)
	}

	stateRoot, err := validatorSetRoot(vals)
	if err != nil {
		return nil, err
	}

	block := core.NewBlock(0, GenesisHash, proposerPub.Hex(), nil)
	block.Header.StateRoot = stateRoot
	block.Header.TxRoot = crypto.Hash([]byte(cfg.Genesis.ChainID))
	block.Sign(proposerPriv)
	return block, nil
}

// validatorSetRoot is a deterministic digest of the genesis validator set,
// standing in for a real state root since this repository keeps no
// account ledger.
func validatorSetRoot(vals []validator.Validator) (string, error) {
	data, err := json.Marshal(vals)
	if err != nil {
		return "", err
	}
	return crypto.Hash(data), nil
}

// IsGenesisHash returns true if the hash is the canonical genesis prev-hash.
func IsGenesisHash(h string) bool {
	return strings.Count(h, "0") == len(h) && len(h) == 64
}
