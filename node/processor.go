// Package node implements the single-process block-commit pipeline this
// repository runs elections against: verify every transaction in a
// candidate block, persist the block, index its transactions, then run
// the election approval pass before returning. There is no networking or
// RPC surface here — blocks arrive already assembled, the way a real
// deployment's consensus engine would hand off a decided block.
package node

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/election"
	"github.com/tolchain/election/events"
	"github.com/tolchain/election/internal/metrics"
	"github.com/tolchain/election/storage"
	"github.com/tolchain/election/validator"
)

// Processor commits blocks and drives the election lifecycle. It is the
// single writer for both the block store and the election chain state —
// callers must not run two CommitBlock calls concurrently.
type Processor struct {
	bc      *core.Blockchain
	chain   *storage.ChainStore
	driver  *election.Driver
	mempool *core.Mempool
	emitter *events.Emitter
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

// NewProcessor wires a Processor from its collaborators.
func NewProcessor(bc *core.Blockchain, chain *storage.ChainStore, driver *election.Driver, mempool *core.Mempool, emitter *events.Emitter, log *zap.SugaredLogger, m *metrics.Metrics) *Processor {
	return &Processor{bc: bc, chain: chain, driver: driver, mempool: mempool, emitter: emitter, log: log, metrics: m}
}

// CommitBlock verifies every transaction in block, appends it to the
// chain, indexes its transactions for later lookup, and runs the election
// approval pass. On any verification failure the block is rejected
// wholesale and nothing is persisted.
func (p *Processor) CommitBlock(block *core.Block) ([]election.Outcome, error) {
	pending := block.Transactions

	for i, tx := range block.Transactions {
		if err := p.verifyTx(tx, pending[:i]); err != nil {
			return nil, fmt.Errorf("tx %d (%s): %w", i, tx.ID, err)
		}
	}

	if err := p.bc.AddBlock(block); err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}

	height := uint64(block.Header.Height)
	for _, tx := range block.Transactions {
		if err := p.chain.IndexTransaction(tx, height); err != nil {
			return nil, fmt.Errorf("index tx %s: %w", tx.ID, err)
		}
		p.emitForTx(tx, block.Header.Height)
	}

	outcomes, err := p.driver.ProcessBlock(p.chain, block, height)
	if err != nil {
		return nil, fmt.Errorf("approval pass: %w", err)
	}

	txIDs := make([]string, len(block.Transactions))
	for i, tx := range block.Transactions {
		txIDs[i] = tx.ID
	}
	p.mempool.Remove(txIDs)

	var updateCount int
	if p.emitter != nil {
		p.emitter.Emit(events.Event{
			Type:        events.EventBlockCommit,
			BlockHeight: block.Header.Height,
			Data:        map[string]any{"hash": block.Hash, "txs": len(block.Transactions)},
		})
	}
	for _, o := range outcomes {
		if o.Update != nil {
			updateCount++
		}
		if p.emitter == nil {
			continue
		}
		p.emitter.Emit(events.Event{
			Type:        events.EventElectionConcluded,
			TxID:        o.ElectionID,
			BlockHeight: block.Header.Height,
		})
		if o.Update != nil {
			p.emitter.Emit(events.Event{
				Type:        events.EventValidatorUpdate,
				BlockHeight: block.Header.Height,
				Data:        map[string]any{"public_key": o.Update.PublicKey, "voting_power": o.Update.VotingPower},
			})
		}
	}

	if p.metrics != nil {
		p.metrics.BlocksCommitted.Inc()
		p.metrics.TxsCommitted.Add(float64(len(block.Transactions)))
		p.metrics.ElectionsConcluded.Add(float64(len(outcomes)))
		p.metrics.ValidatorUpdates.Add(float64(updateCount))
	}
	if p.log != nil {
		p.log.Infow("committed block",
			"height", block.Header.Height,
			"hash", block.Hash,
			"txs", len(block.Transactions),
			"elections_concluded", len(outcomes),
			"validator_updates", updateCount,
		)
	}

	return outcomes, nil
}

// verifyTx checks signatures and, for election operations, the rules
// election.Validate adds on top of a plain signed transaction; votes and
// other operations get the signature check only. siblings is every
// transaction earlier in the same candidate block; together with the
// mempool's contents it is passed to election.Validate as its pending set.
func (p *Processor) verifyTx(tx *core.Transaction, siblings []*core.Transaction) error {
	if err := tx.VerifySignatures(); err != nil {
		return err
	}

	catalogue := election.DefaultCatalogue()
	if _, ok := catalogue.Lookup(tx.Operation); ok {
		e := &election.Election{Tx: tx}
		if _, err := e.Validate(p.chain, append(p.mempool.All(), siblings...)); err != nil {
			return err
		}
	}
	return nil
}

// emitForTx fires the domain event, if any, that corresponds to tx's
// operation. Elections and votes are identified by catalogue membership
// and operation tag respectively, not by a hardcoded list, so a new
// subtype registering into the catalogue is picked up automatically.
func (p *Processor) emitForTx(tx *core.Transaction, height int64) {
	if _, ok := election.DefaultCatalogue().Lookup(tx.Operation); ok {
		if p.metrics != nil {
			p.metrics.ElectionsStarted.Inc()
		}
		if p.emitter != nil {
			p.emitter.Emit(events.Event{
				Type: events.EventElectionProposed, TxID: tx.ID, BlockHeight: height,
				Data: map[string]any{"operation": string(tx.Operation)},
			})
		}
		return
	}
	if tx.Operation == core.OpVote {
		if p.metrics != nil {
			p.metrics.VotesTallied.Inc()
		}
		if p.emitter != nil {
			p.emitter.Emit(events.Event{
				Type: events.EventVoteCast, TxID: tx.ID, BlockHeight: height,
				Data: map[string]any{"asset_id": tx.AssetID()},
			})
		}
	}
}

// ApplyValidatorChange records a new validator set at height. A real
// deployment receives this from its consensus engine's callback; this
// demo host exposes it as an explicit call since it has no such engine.
func (p *Processor) ApplyValidatorChange(height uint64, vals []validator.Validator) error {
	return p.chain.RecordValidatorChange(&validator.ValidatorChange{Height: height, Validators: vals})
}
