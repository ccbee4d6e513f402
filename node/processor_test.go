package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/election"
	"github.com/tolchain/election/events"
	"github.com/tolchain/election/internal/logging"
	"github.com/tolchain/election/storage"
	"github.com/tolchain/election/validator"
	"github.com/tolchain/election/wallet"
)

const testOp core.Operation = "TEST_NODE_OP"

// Registered once into the package-level default catalogue: Processor's
// verifyTx and emitForTx both dispatch through election.DefaultCatalogue
// rather than a catalogue threaded explicitly through CommitBlock, so an
// election subtype exercised by these tests has to live there too.
func init() {
	election.Register(election.Type{
		Operation: testOp,
		OnApproval: func(chain election.Chain, e *election.Election, newHeight uint64) (*election.ValidatorUpdate, error) {
			return &election.ValidatorUpdate{PublicKey: "removed-validator", VotingPower: 0}, nil
		},
	})
}

type harness struct {
	bc    *core.Blockchain
	chain *storage.ChainStore
	proc  *Processor
	a, b  *wallet.Wallet
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := storage.NewLevelDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blockStore := storage.NewLevelBlockStore(db)
	bc := core.NewBlockchain(blockStore)
	require.NoError(t, bc.Init())

	a, err := wallet.Generate()
	require.NoError(t, err)
	b, err := wallet.Generate()
	require.NoError(t, err)

	genesis := map[string]uint64{a.PubKey(): 5, b.PubKey(): 5}
	chain := storage.NewChainStore(db, blockStore, genesis)
	require.NoError(t, chain.RecordValidatorChange(&validator.ValidatorChange{Height: 0, Validators: []validator.Validator{
		{PublicKey: a.PubKey(), VotingPower: 5},
		{PublicKey: b.PubKey(), VotingPower: 5},
	}}))

	genesisBlock := core.NewBlock(0, "0000", a.PubKey(), nil)
	genesisBlock.Sign(a.PrivKey())
	require.NoError(t, bc.AddBlock(genesisBlock))

	driver := election.NewDriver(election.DefaultCatalogue())
	proc := NewProcessor(bc, chain, driver, core.NewMempool(), events.NewEmitter(), logging.NewNop(), nil)

	return &harness{bc: bc, chain: chain, proc: proc, a: a, b: b}
}

func (h *harness) commit(t *testing.T, txs ...*core.Transaction) []election.Outcome {
	t.Helper()
	block := core.NewBlock(h.bc.Height()+1, h.bc.Tip().Hash, h.a.PubKey(), txs)
	block.Sign(h.a.PrivKey())
	outcomes, err := h.proc.CommitBlock(block)
	require.NoError(t, err)
	return outcomes
}

func TestCommitBlockConcludesElectionAcrossTwoVotes(t *testing.T) {
	h := newHarness(t)

	electionTx, err := h.a.ProposeElection(election.DefaultCatalogue(), testOp, []election.Voter{
		{PublicKey: h.a.PubKey(), VotingPower: 5},
		{PublicKey: h.b.PubKey(), VotingPower: 5},
	}, nil, nil)
	require.NoError(t, err)

	outcomes := h.commit(t, electionTx.Tx)
	require.Empty(t, outcomes, "proposing the election alone must not conclude it")

	electionPK, err := electionTx.DerivePK()
	require.NoError(t, err)

	voteA, err := h.a.Vote(electionTx.Tx.ID, electionPK, 5)
	require.NoError(t, err)
	outcomes = h.commit(t, voteA)
	require.Empty(t, outcomes, "one vote out of ten total power does not cross two-thirds of ten")

	voteB, err := h.b.Vote(electionTx.Tx.ID, electionPK, 5)
	require.NoError(t, err)
	outcomes = h.commit(t, voteB)
	require.Len(t, outcomes, 1)
	require.Equal(t, electionTx.Tx.ID, outcomes[0].ElectionID)
	require.Equal(t, "removed-validator", outcomes[0].Update.PublicKey)
}

func TestCommitBlockRejectsInvalidElectionInBlock(t *testing.T) {
	h := newHarness(t)

	outsider, err := wallet.Generate()
	require.NoError(t, err)
	electionTx, err := outsider.ProposeElection(election.DefaultCatalogue(), testOp, []election.Voter{
		{PublicKey: h.a.PubKey(), VotingPower: 5},
		{PublicKey: h.b.PubKey(), VotingPower: 5},
	}, nil, nil)
	require.NoError(t, err)

	block := core.NewBlock(h.bc.Height()+1, h.bc.Tip().Hash, h.a.PubKey(), []*core.Transaction{electionTx.Tx})
	block.Sign(h.a.PrivKey())
	_, err = h.proc.CommitBlock(block)
	require.ErrorIs(t, err, election.ErrInvalidProposer)
}

func TestApplyValidatorChangeIsVisibleToNextBlock(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.proc.ApplyValidatorChange(1, []validator.Validator{{PublicKey: h.a.PubKey(), VotingPower: 9}}))

	vals, err := h.chain.ValidatorsAt(nil)
	require.NoError(t, err)
	require.Equal(t, uint64(9), vals[h.a.PubKey()])
	require.NotContains(t, vals, h.b.PubKey())
}
