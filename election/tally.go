package election

import "github.com/tolchain/election/core"

// CountVotes sums the output amount sent to electionPK across votes: for
// every output whose PublicKeys is exactly [electionPK], its Amount counts
// toward the total. A voter is credited at most once regardless of how
// many qualifying vote transactions it signed — a validator only ever
// needs to cast one — and votes from public keys no longer in
// currentValidators are ignored entirely, since a validator that has
// since been removed cannot contribute to a tally it is no longer part
// of.
func CountVotes(currentValidators map[string]uint64, votes []*core.Transaction, electionPK string) uint64 {
	credited := make(map[string]bool, len(votes))
	var total uint64
	for _, tx := range votes {
		if tx.Operation != core.OpVote {
			continue
		}
		if len(tx.Inputs) != 1 || len(tx.Inputs[0].Owners) != 1 {
			continue
		}
		voter := tx.Inputs[0].Owners[0]
		if _, ok := currentValidators[voter]; !ok || credited[voter] {
			continue
		}

		var amount uint64
		for _, out := range tx.Outputs {
			if len(out.PublicKeys) == 1 && out.PublicKeys[0] == electionPK {
				amount += out.Amount
			}
		}
		if amount == 0 {
			continue
		}
		credited[voter] = true
		total += amount
	}
	return total
}

// CommittedVotes fetches every committed vote transaction for e and tallies
// them against currentValidators, without double-counting a voter's power
// if it cast more than one qualifying vote.
func CommittedVotes(chain Chain, e *Election, currentValidators map[string]uint64) (uint64, error) {
	electionPK, err := e.DerivePK()
	if err != nil {
		return 0, err
	}
	votes, err := chain.CommittedVoteTransactions(e.Tx.AssetID(), electionPK)
	if err != nil {
		return 0, err
	}
	return CountVotes(currentValidators, votes, electionPK), nil
}
