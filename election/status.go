package election

import (
	"errors"

	"github.com/tolchain/election/core"
)

// Status is an election's current position in its lifecycle.
type Status string

const (
	// StatusOngoing: no result recorded yet and the validator set has not
	// moved since the election was proposed.
	StatusOngoing Status = "ongoing"
	// StatusConcluded: a Result has been stored for this election.
	StatusConcluded Status = "concluded"
	// StatusInconclusive: the validator set changed before this election
	// could gather a supermajority against its original topology. It can
	// never conclude and the approval driver stops considering it.
	StatusInconclusive Status = "inconclusive"
)

// HasValidatorSetChanged reports whether the validator set has moved since
// e was included in a block: the height of the most recently recorded
// ValidatorChange is compared against the height of the block containing
// e's transaction (0 if e has not been committed yet), not against a
// snapshot of the validator set itself. A set that changes after e's
// inclusion height and later reverts to e's original topology still
// counts as changed, since the most recent recorded change height is
// still past e's inclusion height.
func HasValidatorSetChanged(chain Chain, e *Election) (bool, error) {
	change, err := chain.LatestValidatorChange()
	if err != nil {
		return false, err
	}
	if change == nil {
		return false, nil
	}

	heights, err := chain.GetBlockContainingTx(e.Tx.ID)
	if err != nil {
		return false, err
	}
	var inclusionHeight uint64
	for i, h := range heights {
		if i == 0 || h < inclusionHeight {
			inclusionHeight = h
		}
	}

	return change.Height > inclusionHeight, nil
}

// GetStatus derives e's current Status from persisted chain state and the
// validator-change log. It never mutates anything — callers (the approval
// driver) are responsible for transitioning an election into
// StatusConcluded by calling StoreElectionResult.
func GetStatus(chain Chain, e *Election) (Status, error) {
	_, err := chain.GetElection(e.Tx.ID)
	switch {
	case err == nil:
		return StatusConcluded, nil
	case errors.Is(err, core.ErrNotFound):
		// fall through to the live checks below
	default:
		return "", err
	}

	changed, err := HasValidatorSetChanged(chain, e)
	if err != nil {
		return "", err
	}
	if changed {
		return StatusInconclusive, nil
	}
	return StatusOngoing, nil
}
