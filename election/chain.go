package election

import (
	"github.com/tolchain/election/core"
	"github.com/tolchain/election/validator"
)

// Chain is the facade the election subsystem consumes. It is
// implemented concretely by package storage for this repository's demo
// host; a real deployment substitutes its own block store and consensus
// bridge without package election needing to change.
type Chain interface {
	// ValidatorsAt returns the validator set at height (nil = current) as
	// hex-pubkey → voting power. Backed by validator.View (component A).
	ValidatorsAt(height *uint64) (map[string]uint64, error)
	// LatestValidatorChange returns the most recently recorded change, or
	// nil on a fresh chain.
	LatestValidatorChange() (*validator.ValidatorChange, error)

	// IsCommitted reports whether txID has already been committed to the
	// chain.
	IsCommitted(txID string) (bool, error)
	// GetBlockContainingTx returns the heights of blocks containing txID,
	// empty if uncommitted.
	GetBlockContainingTx(txID string) ([]uint64, error)
	// GetTransaction returns a committed transaction by ID, core.ErrNotFound
	// if absent.
	GetTransaction(txID string) (*core.Transaction, error)

	// GetElection returns a persisted Result for electionID, or
	// core.ErrNotFound if the election has not concluded.
	GetElection(electionID string) (*Result, error)
	// StoreElectionResult persists res. Idempotent under (ElectionID, HeightConcluded).
	StoreElectionResult(res *Result) error

	// CommittedVoteTransactions returns every committed VOTE transaction
	// filed under assetID with at least one output addressed solely to
	// electionPK.
	CommittedVoteTransactions(assetID, electionPK string) ([]*core.Transaction, error)

	// RecordMigrationHalt persists the height at which block production
	// should halt for an approved chain migration. Called from the
	// migration subtype's OnApproval hook, which otherwise has no
	// validator-set effect to report.
	RecordMigrationHalt(height uint64) error
	// MigrationHalt returns the most recently recorded halt height, or
	// ok=false if none has been recorded.
	MigrationHalt() (height uint64, ok bool, err error)
}

// Result is the persisted conclusion record for a concluded election.
type Result struct {
	ElectionID      string `json:"election_id"`
	HeightConcluded uint64 `json:"height_concluded"`
	// EffectDigest summarizes the applied on-approval effect (e.g. a hash
	// or compact description of the ValidatorUpdate). It is opaque to the
	// status machine, which only cares whether a Result exists at all.
	EffectDigest string `json:"effect_digest,omitempty"`
}

// ValidatorUpdate is handed back to the consensus engine after a
// concluded election's on-approval hook runs. VotingPower of 0 means
// "remove this validator", matching the Tendermint ValidatorUpdate
// convention.
type ValidatorUpdate struct {
	PublicKey   string `json:"public_key"`
	VotingPower uint64 `json:"voting_power"`
}
