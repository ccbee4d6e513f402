package wallet

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/election"
)

const testOp core.Operation = "TEST_WALLET_OP"

func testCatalogue() *election.Catalogue {
	c := election.NewCatalogue()
	_ = c.Register(election.Type{
		Operation:  testOp,
		OnApproval: func(election.Chain, *election.Election, uint64) (*election.ValidatorUpdate, error) { return nil, nil },
	})
	return c
}

func TestProposeElectionSignsProposerInput(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	e, err := w.ProposeElection(testCatalogue(), testOp, []election.Voter{{PublicKey: w.PubKey(), VotingPower: 5}}, nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, e.Tx.Inputs[0].Signature)
	require.NoError(t, e.Tx.VerifySignatures())
}

func TestVoteBuildsSignedVoteTransaction(t *testing.T) {
	w, err := Generate()
	require.NoError(t, err)

	tx, err := w.Vote("asset-id-hex", "election-pk", 5)
	require.NoError(t, err)
	require.Equal(t, core.OpVote, tx.Operation)
	require.Equal(t, "asset-id-hex", tx.Asset.ID)
	require.Equal(t, []string{"election-pk"}, tx.Outputs[0].PublicKeys)
	require.Equal(t, uint64(5), tx.Outputs[0].Amount)
	require.NoError(t, tx.VerifySignatures())
}

func TestGenerateProducesDistinctWallets(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	require.NotEqual(t, a.PubKey(), b.PubKey())
}
