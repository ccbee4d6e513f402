package storage

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/election"
	"github.com/tolchain/election/validator"
)

// Key prefixes for the election-facing side of the store. Block and raw
// KV storage live under their own prefixes in LevelBlockStore/LevelDB;
// these are layered on the same underlying DB.
const (
	prefixTxIndex      = "tx:"             // tx:<id> -> committed transaction JSON
	prefixTxHeight     = "txheight:"       // txheight:<id> -> JSON []uint64 of containing block heights
	prefixElectionRes  = "electionresult:" // electionresult:<id> -> Result JSON
	prefixValChange    = "valchange:"      // valchange:<height> -> ValidatorChange JSON
	prefixVoteByAsset  = "vote:"           // vote:<assetID>:<txID> -> transaction JSON, for asset-token lookups
	keyLatestValHeight = "valchange:latest"
	keyMigrationHalt   = "migration:halt"
)

// ChainStore implements election.Chain and validator.Feed, including the
// transaction lookups, on top of a single LevelDB instance. It stands
// in for both a consensus engine's validator feed and a backend query
// layer's transaction index.
type ChainStore struct {
	db       *LevelDB
	blocks   *LevelBlockStore
	genesis  map[string]uint64 // bootstrap validator set, used until a ValidatorChange is recorded
}

// NewChainStore wraps db (and its block store) as a ChainStore.
func NewChainStore(db *LevelDB, blocks *LevelBlockStore, genesisValidators map[string]uint64) *ChainStore {
	return &ChainStore{db: db, blocks: blocks, genesis: genesisValidators}
}

// ---- validator.Feed ----

func (c *ChainStore) GetValidators(height *uint64) ([]validator.RawValidator, error) {
	change, err := c.latestChangeAt(height)
	if err != nil {
		return nil, err
	}
	if change == nil {
		return genesisRaw(c.genesis), nil
	}
	raw := make([]validator.RawValidator, len(change.Validators))
	for i, v := range change.Validators {
		raw[i] = hexToRaw(v)
	}
	return raw, nil
}

func (c *ChainStore) GetValidatorChange(height uint64) (*validator.ValidatorChange, error) {
	data, err := c.db.Get([]byte(fmt.Sprintf("%s%d", prefixValChange, height)))
	if err != nil {
		return nil, err
	}
	var change validator.ValidatorChange
	if err := json.Unmarshal(data, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

func (c *ChainStore) LatestHeight() (uint64, bool, error) {
	data, err := c.db.Get([]byte(keyLatestValHeight))
	if err == core.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var height uint64
	if err := json.Unmarshal(data, &height); err != nil {
		return 0, false, err
	}
	return height, true, nil
}

// RecordValidatorChange persists a ValidatorChange and advances the
// latest-height pointer. Called from the node's ApplyValidatorChange path
// (this repository has no live consensus engine pushing changes).
func (c *ChainStore) RecordValidatorChange(change *validator.ValidatorChange) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}
	if err := c.db.Set([]byte(fmt.Sprintf("%s%d", prefixValChange, change.Height)), data); err != nil {
		return err
	}
	heightData, err := json.Marshal(change.Height)
	if err != nil {
		return err
	}
	return c.db.Set([]byte(keyLatestValHeight), heightData)
}

func (c *ChainStore) latestChangeAt(height *uint64) (*validator.ValidatorChange, error) {
	latestHeight, ok, err := c.LatestHeight()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if height != nil && *height < latestHeight {
		// no history walk-back in this store: callers asking for a past
		// height before the most recent recorded change get the genesis set.
		return nil, nil
	}
	return c.GetValidatorChange(latestHeight)
}

func genesisRaw(genesis map[string]uint64) []validator.RawValidator {
	raw := make([]validator.RawValidator, 0, len(genesis))
	for pk, power := range genesis {
		raw = append(raw, validator.RawValidator{
			PublicKey: struct {
				Value string `json:"value"`
			}{Value: hexToBase64(pk)},
			VotingPower: int64(power),
		})
	}
	return raw
}

func hexToRaw(v validator.Validator) validator.RawValidator {
	return validator.RawValidator{
		PublicKey: struct {
			Value string `json:"value"`
		}{Value: hexToBase64(v.PublicKey)},
		VotingPower: int64(v.VotingPower),
	}
}

// hexToBase64 re-encodes a stored hex public key as the base64 a Feed
// delivers in RawValidator. A key that is not valid hex yields a value
// validator.View rejects.
func hexToBase64(pk string) string {
	b, _ := hex.DecodeString(pk)
	return base64.StdEncoding.EncodeToString(b)
}

// ---- election.Chain ----

func (c *ChainStore) ValidatorsAt(height *uint64) (map[string]uint64, error) {
	return validator.New(c).ValidatorsAt(height)
}

func (c *ChainStore) LatestValidatorChange() (*validator.ValidatorChange, error) {
	return validator.New(c).LatestChange()
}

func (c *ChainStore) IsCommitted(txID string) (bool, error) {
	_, err := c.db.Get([]byte(prefixTxIndex + txID))
	if err == core.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *ChainStore) GetBlockContainingTx(txID string) ([]uint64, error) {
	data, err := c.db.Get([]byte(prefixTxHeight + txID))
	if err == core.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var heights []uint64
	if err := json.Unmarshal(data, &heights); err != nil {
		return nil, err
	}
	return heights, nil
}

func (c *ChainStore) GetTransaction(txID string) (*core.Transaction, error) {
	data, err := c.db.Get([]byte(prefixTxIndex + txID))
	if err != nil {
		return nil, err
	}
	var tx core.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *ChainStore) GetElection(electionID string) (*election.Result, error) {
	data, err := c.db.Get([]byte(prefixElectionRes + electionID))
	if err != nil {
		return nil, err
	}
	var res election.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *ChainStore) StoreElectionResult(res *election.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.db.Set([]byte(prefixElectionRes+res.ElectionID), data)
}

func (c *ChainStore) CommittedVoteTransactions(assetID, electionPK string) ([]*core.Transaction, error) {
	iter := c.db.NewIterator([]byte(prefixVoteByAsset + assetID + ":"))
	defer iter.Release()

	var votes []*core.Transaction
	for iter.Next() {
		var tx core.Transaction
		if err := json.Unmarshal(iter.Value(), &tx); err != nil {
			return nil, err
		}
		for _, out := range tx.Outputs {
			if len(out.PublicKeys) == 1 && out.PublicKeys[0] == electionPK {
				votes = append(votes, &tx)
				break
			}
		}
	}
	return votes, iter.Error()
}

func (c *ChainStore) RecordMigrationHalt(height uint64) error {
	data, err := json.Marshal(height)
	if err != nil {
		return err
	}
	return c.db.Set([]byte(keyMigrationHalt), data)
}

func (c *ChainStore) MigrationHalt() (uint64, bool, error) {
	data, err := c.db.Get([]byte(keyMigrationHalt))
	if err == core.ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	var height uint64
	if err := json.Unmarshal(data, &height); err != nil {
		return 0, false, err
	}
	return height, true, nil
}

// IndexTransaction persists tx under its own ID, appends height to its
// block-height index, and, if tx is a VOTE, additionally files it under
// its asset ID so CommittedVoteTransactions can list it by the asset-token
// index pattern. Called by the node's block-commit pipeline once per
// transaction in a newly committed block.
func (c *ChainStore) IndexTransaction(tx *core.Transaction, height uint64) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	if err := c.db.Set([]byte(prefixTxIndex+tx.ID), data); err != nil {
		return err
	}

	heights, err := c.GetBlockContainingTx(tx.ID)
	if err != nil {
		return err
	}
	heights = append(heights, height)
	heightData, err := json.Marshal(heights)
	if err != nil {
		return err
	}
	if err := c.db.Set([]byte(prefixTxHeight+tx.ID), heightData); err != nil {
		return err
	}

	if tx.Operation == core.OpVote {
		key := prefixVoteByAsset + tx.AssetID() + ":" + tx.ID
		if err := c.db.Set([]byte(key), data); err != nil {
			return err
		}
	}
	return nil
}
