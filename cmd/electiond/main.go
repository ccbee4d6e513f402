// Command electiond runs a single-process demonstration chain: it
// bootstraps a genesis validator set, commits a VALIDATOR_UPDATE election
// proposed by validator A, then commits votes from A and B one block at a
// time until the approval driver concludes it and reports the resulting
// validator update.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tolchain/election/config"
	"github.com/tolchain/election/core"
	"github.com/tolchain/election/election"
	_ "github.com/tolchain/election/election/migration"
	"github.com/tolchain/election/election/validatorupdate"
	"github.com/tolchain/election/events"
	"github.com/tolchain/election/internal/logging"
	"github.com/tolchain/election/node"
	"github.com/tolchain/election/storage"
	"github.com/tolchain/election/validator"
	"github.com/tolchain/election/wallet"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (.json or .yaml); omitted to run the built-in three-validator demo config")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		log.Fatalf("electiond: %v", err)
	}
}

func run(cfgPath string) error {
	a, b, c := mustWallet(), mustWallet(), mustWallet()

	cfg := config.DefaultConfig()
	cfg.Genesis.Validators = map[string]uint64{
		a.PubKey(): 5,
		b.PubKey(): 5,
		c.PubKey(): 5,
	}
	cfg.Proposers = []string{a.PubKey()}
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("mkdir data dir: %w", err)
	}
	db, err := storage.NewLevelDB(cfg.DataDir + "/chain")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	blockStore := storage.NewLevelBlockStore(db)
	bc := core.NewBlockchain(blockStore)
	if err := bc.Init(); err != nil {
		return fmt.Errorf("blockchain init: %w", err)
	}

	genesisVals := make(map[string]uint64, len(cfg.Genesis.Validators))
	for pk, power := range cfg.Genesis.Validators {
		genesisVals[pk] = power
	}
	chain := storage.NewChainStore(db, blockStore, genesisVals)

	if bc.Tip() == nil {
		genesisBlock, err := config.CreateGenesisBlock(cfg, chain, a.PrivKey())
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
		if err := bc.AddBlock(genesisBlock); err != nil {
			return fmt.Errorf("add genesis: %w", err)
		}
		logger.Infow("genesis block committed", "hash", genesisBlock.Hash)
	}

	emitter := events.NewEmitter()
	emitter.Subscribe(events.EventValidatorUpdate, func(ev events.Event) {
		logger.Infow("validator update", "data", ev.Data)
	})

	mempool := core.NewMempool()
	driver := election.NewDriver(election.DefaultCatalogue())
	proc := node.NewProcessor(bc, chain, driver, mempool, emitter, logger, nil)

	electionTx, err := a.ProposeElection(
		election.DefaultCatalogue(),
		validatorupdate.Operation,
		[]election.Voter{
			{PublicKey: a.PubKey(), VotingPower: 5},
			{PublicKey: b.PubKey(), VotingPower: 5},
			{PublicKey: c.PubKey(), VotingPower: 5},
		},
		validatorupdate.NewPayload(c.PubKey(), 0),
		map[string]any{"description": "remove validator C"},
	)
	if err != nil {
		return fmt.Errorf("propose election: %w", err)
	}

	proposeBlock := core.NewBlock(bc.Height()+1, bc.Tip().Hash, a.PubKey(), []*core.Transaction{electionTx.Tx})
	proposeBlock.Sign(a.PrivKey())
	if _, err := proc.CommitBlock(proposeBlock); err != nil {
		return fmt.Errorf("commit election block: %w", err)
	}
	logger.Infow("election proposed", "election_id", electionTx.Tx.ID)

	electionPK, err := electionTx.DerivePK()
	if err != nil {
		return fmt.Errorf("derive election pk: %w", err)
	}

	for _, voter := range []*wallet.Wallet{a, b} {
		voteTx, err := voter.Vote(electionTx.Tx.ID, electionPK, 5)
		if err != nil {
			return fmt.Errorf("cast vote: %w", err)
		}
		block := core.NewBlock(bc.Height()+1, bc.Tip().Hash, a.PubKey(), []*core.Transaction{voteTx})
		block.Sign(a.PrivKey())
		outcomes, err := proc.CommitBlock(block)
		if err != nil {
			return fmt.Errorf("commit vote block: %w", err)
		}
		for _, o := range outcomes {
			logger.Infow("election concluded", "election_id", o.ElectionID)
			if o.Update == nil {
				continue
			}
			if err := applyValidatorUpdate(proc, chain, uint64(bc.Height()), *o.Update); err != nil {
				return fmt.Errorf("apply validator update: %w", err)
			}
		}
	}

	result, err := chain.GetElection(electionTx.Tx.ID)
	if err == nil {
		logger.Infow("final result", "height_concluded", result.HeightConcluded, "effect", result.EffectDigest)
	}
	return nil
}

func mustWallet() *wallet.Wallet {
	w, err := wallet.Generate()
	if err != nil {
		log.Fatalf("generate wallet: %v", err)
	}
	return w
}

// applyValidatorUpdate merges a single ValidatorUpdate into the current
// validator set and records the result at height+1. A live deployment
// would instead receive this callback from its consensus engine once the
// update is itself finalized; this demo host has no such engine.
func applyValidatorUpdate(proc *node.Processor, chain *storage.ChainStore, height uint64, update election.ValidatorUpdate) error {
	current, err := chain.ValidatorsAt(nil)
	if err != nil {
		return err
	}
	next := make([]validator.Validator, 0, len(current)+1)
	for pk, power := range current {
		if pk == update.PublicKey {
			continue
		}
		next = append(next, validator.Validator{PublicKey: pk, VotingPower: power})
	}
	if update.VotingPower > 0 {
		next = append(next, validator.Validator{PublicKey: update.PublicKey, VotingPower: update.VotingPower})
	}
	return proc.ApplyValidatorChange(height+1, next)
}
