package election

import (
	"github.com/tolchain/election/core"
	"github.com/tolchain/election/validator"
)

// fakeChain is an in-memory election.Chain double used across this
// package's tests, standing in for storage.ChainStore.
type fakeChain struct {
	validators   map[string]uint64
	latestChange *validator.ValidatorChange // nil on a fresh chain, as storage.ChainStore reports
	committed    map[string]*core.Transaction
	txHeights    map[string][]uint64
	results      map[string]*Result
	votes        map[string][]*core.Transaction // assetID -> votes
	haltHeight   uint64
	haltSet      bool
}

func newFakeChain(validators map[string]uint64) *fakeChain {
	return &fakeChain{
		validators: validators,
		committed:  map[string]*core.Transaction{},
		txHeights:  map[string][]uint64{},
		results:    map[string]*Result{},
		votes:      map[string][]*core.Transaction{},
	}
}

func (f *fakeChain) ValidatorsAt(height *uint64) (map[string]uint64, error) {
	return f.validators, nil
}

func (f *fakeChain) LatestValidatorChange() (*validator.ValidatorChange, error) {
	return f.latestChange, nil
}

func (f *fakeChain) IsCommitted(txID string) (bool, error) {
	_, ok := f.committed[txID]
	return ok, nil
}

func (f *fakeChain) GetBlockContainingTx(txID string) ([]uint64, error) {
	return f.txHeights[txID], nil
}

func (f *fakeChain) GetTransaction(txID string) (*core.Transaction, error) {
	tx, ok := f.committed[txID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return tx, nil
}

func (f *fakeChain) GetElection(electionID string) (*Result, error) {
	res, ok := f.results[electionID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return res, nil
}

func (f *fakeChain) StoreElectionResult(res *Result) error {
	f.results[res.ElectionID] = res
	return nil
}

func (f *fakeChain) CommittedVoteTransactions(assetID, electionPK string) ([]*core.Transaction, error) {
	var out []*core.Transaction
	for _, tx := range f.votes[assetID] {
		for _, o := range tx.Outputs {
			if len(o.PublicKeys) == 1 && o.PublicKeys[0] == electionPK {
				out = append(out, tx)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeChain) RecordMigrationHalt(height uint64) error {
	f.haltHeight = height
	f.haltSet = true
	return nil
}

func (f *fakeChain) MigrationHalt() (uint64, bool, error) {
	return f.haltHeight, f.haltSet, nil
}

// commitTx marks tx as committed on the chain, as node.Processor would
// after a successful CommitBlock.
func (f *fakeChain) commitTx(tx *core.Transaction) {
	f.committed[tx.ID] = tx
}

// commitTxAtHeight commits tx and records the block height it was
// included at, the way storage.ChainStore.IndexTransaction does, for
// tests that exercise HasValidatorSetChanged's inclusion-height
// comparison.
func (f *fakeChain) commitTxAtHeight(tx *core.Transaction, height uint64) {
	f.commitTx(tx)
	f.txHeights[tx.ID] = append(f.txHeights[tx.ID], height)
}

// commitVote both commits a VOTE transaction and files it under its
// asset id, as storage.ChainStore.IndexTransaction would.
func (f *fakeChain) commitVote(tx *core.Transaction) {
	f.commitTx(tx)
	assetID := tx.AssetID()
	f.votes[assetID] = append(f.votes[assetID], tx)
}

// changeValidatorSet replaces the live validator set and records a
// ValidatorChange at height, as storage.ChainStore.RecordValidatorChange
// would.
func (f *fakeChain) changeValidatorSet(height uint64, validators map[string]uint64) {
	f.validators = validators
	vals := make([]validator.Validator, 0, len(validators))
	for pk, power := range validators {
		vals = append(vals, validator.Validator{PublicKey: pk, VotingPower: power})
	}
	f.latestChange = &validator.ValidatorChange{Height: height, Validators: vals}
}
