package election

import (
	"errors"
	"fmt"

	"github.com/tolchain/election/core"
)

// Driver runs the per-block approval pass: for every election that
// received a vote in the committed block, it checks whether that vote
// pushed committed support across the two-thirds supermajority threshold
// for the first time, and if so invokes the subtype's OnApproval hook and
// records a Result.
type Driver struct {
	catalogue *Catalogue
}

// NewDriver returns a Driver dispatching into catalogue.
func NewDriver(catalogue *Catalogue) *Driver {
	return &Driver{catalogue: catalogue}
}

// crossesSupermajority reports whether adding pendingPower to
// committedPower would take committed support across two-thirds of total
// for the first time. Expressed as cross-multiplied integer comparisons —
// 3*committed < 2*total and 3*(committed+pending) >= 2*total — so no
// floating-point division ever runs on voting power, keeping the result
// identical across every node regardless of arithmetic implementation.
func crossesSupermajority(committedPower, pendingPower, total uint64) bool {
	before := 3*committedPower < 2*total
	after := 3*(committedPower+pendingPower) >= 2*total
	return before && after
}

// Outcome is one election's fate during a single ProcessBlock call, for
// callers that want to emit events or logs per concluded election.
type Outcome struct {
	ElectionID string
	Operation  core.Operation
	Update     *ValidatorUpdate // nil if the subtype has no validator-set effect
}

// ProcessBlock runs the approval pass over a single committed block. It
// looks at every VOTE transaction in block, groups them by the election
// asset they vote on (elections taken in the order their first vote
// appears in block), and for each such election still StatusOngoing
// checks whether this block's votes newly cross the supermajority
// threshold. block and its transactions are read-only inputs, never a
// package-level or receiver-held default.
func (d *Driver) ProcessBlock(chain Chain, block *core.Block, height uint64) ([]Outcome, error) {
	votesByAsset := make(map[string][]*core.Transaction)
	var assetOrder []string // election ids in order of first appearance in block
	for _, tx := range block.Transactions {
		if tx.Operation != core.OpVote {
			continue
		}
		if _, seen := votesByAsset[tx.AssetID()]; !seen {
			assetOrder = append(assetOrder, tx.AssetID())
		}
		votesByAsset[tx.AssetID()] = append(votesByAsset[tx.AssetID()], tx)
	}
	if len(votesByAsset) == 0 {
		return nil, nil
	}

	currentValidators, err := chain.ValidatorsAt(nil)
	if err != nil {
		return nil, fmt.Errorf("validators at height %d: %w", height, err)
	}
	total := sumPower(currentValidators)

	var outcomes []Outcome
	for _, assetID := range assetOrder {
		blockVotes := votesByAsset[assetID]
		electionTx, err := chain.GetTransaction(assetID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load election %s: %w", assetID, err)
		}
		e := &Election{Tx: electionTx}

		status, err := GetStatus(chain, e)
		if err != nil {
			return nil, fmt.Errorf("status for election %s: %w", e.Tx.ID, err)
		}
		if status != StatusOngoing {
			continue
		}

		typ, ok := d.catalogue.Lookup(electionTx.Operation)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, electionTx.Operation)
		}

		electionPK, err := e.DerivePK()
		if err != nil {
			return nil, fmt.Errorf("derive pk for election %s: %w", e.Tx.ID, err)
		}

		indexedVotes, err := chain.CommittedVoteTransactions(assetID, electionPK)
		if err != nil {
			return nil, fmt.Errorf("load prior votes for %s: %w", e.Tx.ID, err)
		}
		// this block's own votes may already be indexed; they are pending, not prior
		inBlock := make(map[string]bool, len(blockVotes))
		for _, v := range blockVotes {
			inBlock[v.ID] = true
		}
		var priorVotes []*core.Transaction
		for _, v := range indexedVotes {
			if !inBlock[v.ID] {
				priorVotes = append(priorVotes, v)
			}
		}

		committedPower := CountVotes(currentValidators, priorVotes, electionPK)
		combined := append(append([]*core.Transaction{}, priorVotes...), blockVotes...)
		afterPower := CountVotes(currentValidators, combined, electionPK)
		pendingPower := afterPower - committedPower

		concluded := crossesSupermajority(committedPower, pendingPower, total)
		if typ.HasConcluded != nil {
			concluded, err = typ.HasConcluded(chain, e, blockVotes)
			if err != nil {
				return nil, fmt.Errorf("has concluded for %s: %w", e.Tx.ID, err)
			}
		}
		if !concluded {
			continue
		}

		update, err := typ.OnApproval(chain, e, height)
		if err != nil {
			return nil, fmt.Errorf("on approval for %s: %w", e.Tx.ID, err)
		}

		digest := ""
		if update != nil {
			digest = fmt.Sprintf("%s:%d", update.PublicKey, update.VotingPower)
		}
		if err := chain.StoreElectionResult(&Result{
			ElectionID:      e.Tx.ID,
			HeightConcluded: height,
			EffectDigest:    digest,
		}); err != nil {
			return nil, fmt.Errorf("store result for %s: %w", e.Tx.ID, err)
		}

		outcomes = append(outcomes, Outcome{ElectionID: e.Tx.ID, Operation: electionTx.Operation, Update: update})
	}

	return outcomes, nil
}

func sumPower(vals map[string]uint64) uint64 {
	var total uint64
	for _, p := range vals {
		total += p
	}
	return total
}
