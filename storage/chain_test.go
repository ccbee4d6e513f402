package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/crypto"
	"github.com/tolchain/election/election"
	"github.com/tolchain/election/validator"
)

func openTestChainStore(t *testing.T, genesis map[string]uint64) *ChainStore {
	t.Helper()
	db := openTestDB(t)
	blocks := NewLevelBlockStore(db)
	return NewChainStore(db, blocks, genesis)
}

// hexPubKey returns a fresh hex-encoded ed25519 public key. ValidatorsAt
// goes through validator.View, which only accepts real 32-byte keys.
func hexPubKey(t *testing.T) string {
	t.Helper()
	_, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return pub.Hex()
}

func TestChainStoreValidatorsAtFallsBackToGenesis(t *testing.T) {
	genesis := map[string]uint64{hexPubKey(t): 5, hexPubKey(t): 5}
	chain := openTestChainStore(t, genesis)

	vals, err := chain.ValidatorsAt(nil)
	require.NoError(t, err)
	require.Equal(t, genesis, vals)
}

func TestChainStoreRecordValidatorChangeOverridesGenesis(t *testing.T) {
	a, b := hexPubKey(t), hexPubKey(t)
	chain := openTestChainStore(t, map[string]uint64{a: 5})

	change := &validator.ValidatorChange{Height: 10, Validators: []validator.Validator{
		{PublicKey: a, VotingPower: 5},
		{PublicKey: b, VotingPower: 5},
	}}
	require.NoError(t, chain.RecordValidatorChange(change))

	vals, err := chain.ValidatorsAt(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(5), vals[b])

	got, err := chain.LatestValidatorChange()
	require.NoError(t, err)
	require.Equal(t, uint64(10), got.Height)
}

func TestChainStoreIndexTransactionAndLookup(t *testing.T) {
	chain := openTestChainStore(t, map[string]uint64{"a": 5})

	tx := &core.Transaction{ID: "tx-1", Operation: core.OpTransfer}
	require.NoError(t, chain.IndexTransaction(tx, 3))

	committed, err := chain.IsCommitted("tx-1")
	require.NoError(t, err)
	require.True(t, committed)

	got, err := chain.GetTransaction("tx-1")
	require.NoError(t, err)
	require.Equal(t, tx.ID, got.ID)

	heights, err := chain.GetBlockContainingTx("tx-1")
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, heights)
}

func TestChainStoreCommittedVoteTransactionsFiltersByElectionPK(t *testing.T) {
	chain := openTestChainStore(t, map[string]uint64{"a": 5})

	assetID := "deadbeef"
	electionPK, err := election.DeriveElectionPK(assetID)
	require.NoError(t, err)

	matching := &core.Transaction{
		ID: "vote-1", Operation: core.OpVote,
		Asset:   core.Asset{ID: assetID},
		Outputs: []core.Output{{PublicKeys: []string{electionPK}, Amount: 1}},
	}
	other := &core.Transaction{
		ID: "vote-2", Operation: core.OpVote,
		Asset:   core.Asset{ID: assetID},
		Outputs: []core.Output{{PublicKeys: []string{"some-other-pk"}, Amount: 1}},
	}
	require.NoError(t, chain.IndexTransaction(matching, 1))
	require.NoError(t, chain.IndexTransaction(other, 1))

	votes, err := chain.CommittedVoteTransactions(assetID, electionPK)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	require.Equal(t, "vote-1", votes[0].ID)
}

func TestChainStoreElectionResultRoundtrip(t *testing.T) {
	chain := openTestChainStore(t, map[string]uint64{"a": 5})

	_, err := chain.GetElection("missing")
	require.ErrorIs(t, err, core.ErrNotFound)

	res := &election.Result{ElectionID: "e1", HeightConcluded: 7}
	require.NoError(t, chain.StoreElectionResult(res))

	got, err := chain.GetElection("e1")
	require.NoError(t, err)
	require.Equal(t, res.HeightConcluded, got.HeightConcluded)
}

func TestChainStoreMigrationHalt(t *testing.T) {
	chain := openTestChainStore(t, map[string]uint64{"a": 5})

	_, ok, err := chain.MigrationHalt()
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, chain.RecordMigrationHalt(42))
	height, ok, err := chain.MigrationHalt()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), height)
}
