package election

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolchain/election/core"
)

func electionAt(voters []Voter) *Election {
	outputs := make([]core.Output, len(voters))
	for i, v := range voters {
		outputs[i] = core.Output{PublicKeys: []string{v.PublicKey}, Amount: v.VotingPower}
	}
	tx := &core.Transaction{ID: "deadbeef", Operation: testOp, Outputs: outputs}
	return &Election{Tx: tx}
}

func TestGetStatusOngoingWhenNoValidatorChangeEverRecorded(t *testing.T) {
	chain := newFakeChain(map[string]uint64{"a": 5, "b": 5})
	e := electionAt([]Voter{{PublicKey: "a", VotingPower: 5}, {PublicKey: "b", VotingPower: 5}})
	chain.commitTxAtHeight(e.Tx, 1)

	status, err := GetStatus(chain, e)
	require.NoError(t, err)
	require.Equal(t, StatusOngoing, status)
}

func TestGetStatusOngoingWhenLatestChangeAtOrBeforeInclusion(t *testing.T) {
	chain := newFakeChain(map[string]uint64{"a": 5, "b": 5})
	chain.changeValidatorSet(1, map[string]uint64{"a": 5, "b": 5})
	e := electionAt([]Voter{{PublicKey: "a", VotingPower: 5}, {PublicKey: "b", VotingPower: 5}})
	chain.commitTxAtHeight(e.Tx, 2)

	status, err := GetStatus(chain, e)
	require.NoError(t, err)
	require.Equal(t, StatusOngoing, status, "a change recorded before the election's inclusion height must not mark it changed")
}

func TestGetStatusInconclusiveWhenValidatorSetChangedAfterInclusion(t *testing.T) {
	chain := newFakeChain(map[string]uint64{"a": 5, "c": 5})
	e := electionAt([]Voter{{PublicKey: "a", VotingPower: 5}, {PublicKey: "b", VotingPower: 5}})
	chain.commitTxAtHeight(e.Tx, 1)
	chain.changeValidatorSet(2, map[string]uint64{"a": 5, "c": 5})

	status, err := GetStatus(chain, e)
	require.NoError(t, err)
	require.Equal(t, StatusInconclusive, status)
}

func TestGetStatusInconclusiveWhenValidatorSetChangedThenReverted(t *testing.T) {
	original := map[string]uint64{"a": 5, "b": 5}
	chain := newFakeChain(original)
	e := electionAt([]Voter{{PublicKey: "a", VotingPower: 5}, {PublicKey: "b", VotingPower: 5}})
	chain.commitTxAtHeight(e.Tx, 1)

	chain.changeValidatorSet(2, map[string]uint64{"a": 5, "c": 5})
	chain.changeValidatorSet(3, original)

	status, err := GetStatus(chain, e)
	require.NoError(t, err)
	require.Equal(t, StatusInconclusive, status,
		"the most recently recorded change height is still past the election's inclusion height, "+
			"even though the live validator set happens to match the election's original topology again")
}

func TestGetStatusConcludedWhenResultStored(t *testing.T) {
	chain := newFakeChain(map[string]uint64{"a": 5})
	e := electionAt([]Voter{{PublicKey: "a", VotingPower: 5}})
	require.NoError(t, chain.StoreElectionResult(&Result{ElectionID: e.Tx.ID, HeightConcluded: 3}))

	status, err := GetStatus(chain, e)
	require.NoError(t, err)
	require.Equal(t, StatusConcluded, status)
}
