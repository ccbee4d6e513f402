package wallet

import (
	"fmt"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/crypto"
	"github.com/tolchain/election/election"
)

// Wallet holds a key pair and provides transaction-building helpers for
// proposing elections and casting votes.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex-encoded ed25519 public key, this wallet's
// identity as an input owner or output recipient.
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// ProposeElection builds, schema-validates, and signs a new election from
// catalogue for operation op, proposing voters as the validator set it
// targets.
func (w *Wallet) ProposeElection(catalogue *election.Catalogue, op core.Operation, voters []election.Voter, data, metadata map[string]any) (*election.Election, error) {
	e, err := election.Generate(catalogue, op, w.PubKey(), voters, data, metadata)
	if err != nil {
		return nil, err
	}
	if err := e.Tx.SignInput(0, w.priv); err != nil {
		return nil, fmt.Errorf("sign election: %w", err)
	}
	return e, nil
}

// Vote builds and signs a VOTE transaction casting amount of this
// wallet's voting tokens for electionPK. amount must not exceed the
// voting token balance this wallet received in the election's own
// outputs; a wallet may vote with less than its full balance, and its
// vote is tallied for exactly the amount it spends. assetID is the
// election transaction's ID.
func (w *Wallet) Vote(assetID, electionPK string, amount uint64) (*core.Transaction, error) {
	tx := &core.Transaction{
		Operation: core.OpVote,
		Inputs:    []core.Input{{Owners: []string{w.PubKey()}, Fulfills: assetID}},
		Outputs:   []core.Output{{PublicKeys: []string{electionPK}, Amount: amount}},
		Asset:     core.Asset{ID: assetID},
	}
	tx.Finalize()
	if err := tx.SignInput(0, w.priv); err != nil {
		return nil, fmt.Errorf("sign vote: %w", err)
	}
	return tx, nil
}
