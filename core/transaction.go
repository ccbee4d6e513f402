// Package core implements the base transaction and block model the
// election subsystem is layered on top of. The rest of this repository
// (package election) only ever touches it through the shapes defined
// here, never through a concrete wire format.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tolchain/election/crypto"
)

// Operation identifies the kind of transaction. The election subsystem
// registers its own CREATE-family operation tags (e.g. "VALIDATOR_UPDATE")
// into election.Catalogue; package core only knows about the two
// operations every transaction is either one of or a subtype of.
type Operation string

const (
	// OpTransfer moves existing outputs to new owners.
	OpTransfer Operation = "TRANSFER"
	// OpVote is a TRANSFER restricted, by convention, to election-pk
	// recipients; package core does not special-case it, package election
	// does.
	OpVote Operation = "VOTE"
)

// ErrNotFound is returned by chain/storage lookups for a missing object.
var ErrNotFound = errors.New("not found")

// Input authorizes spending of a prior transaction's outputs (or, for a
// CREATE-family transaction, simply identifies the proposer). Owners has
// length 1 for every input the election subsystem validates: exactly one
// input, one signer.
type Input struct {
	Owners    []string `json:"owners"`    // hex-encoded ed25519 public keys
	Fulfills  string   `json:"fulfills"`  // transaction ID this input spends, "" for CREATE
	Signature string   `json:"signature"` // hex signature by Owners[0] over the tx's canonical hash
}

// Output assigns an amount to a set of public keys. A singleton
// PublicKeys list addressed to an election pk is a valid vote output; any
// other cardinality contributes zero to a tally.
type Output struct {
	PublicKeys []string `json:"public_keys"`
	Amount     uint64   `json:"amount"`
}

// Asset carries the payload a transaction is about. Data is opaque to
// package core; election.Election interprets it (the seed, a subtype's
// custom payload). ID is left empty at construction time for a
// CREATE-family transaction — it is implicitly the transaction's own ID —
// and is set explicitly on a TRANSFER/VOTE to name the asset being moved.
type Asset struct {
	ID   string         `json:"id,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

// Transaction is the atomic unit of chain state change.
type Transaction struct {
	ID        string         `json:"id"`
	Operation Operation      `json:"operation"`
	Inputs    []Input        `json:"inputs"`
	Outputs   []Output       `json:"outputs"`
	Asset     Asset          `json:"asset"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// signingView is the canonical form that gets hashed and signed: every
// field except the per-input signatures and the transaction's own ID.
type signingView struct {
	Operation Operation      `json:"operation"`
	Inputs    []signingInput `json:"inputs"`
	Outputs   []Output       `json:"outputs"`
	Asset     Asset          `json:"asset"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

type signingInput struct {
	Owners   []string `json:"owners"`
	Fulfills string   `json:"fulfills"`
}

// CanonicalHash returns the deterministic hex-encoded hash of the
// transaction's signing view. Transaction.ID is set to this once a
// transaction is fully assembled: id is the deterministic hash of the
// canonical serialization.
func (tx *Transaction) CanonicalHash() string {
	view := signingView{
		Operation: tx.Operation,
		Outputs:   tx.Outputs,
		Asset:     tx.Asset,
		Metadata:  tx.Metadata,
		Timestamp: tx.Timestamp,
	}
	view.Inputs = make([]signingInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		view.Inputs[i] = signingInput{Owners: in.Owners, Fulfills: in.Fulfills}
	}
	data, err := json.Marshal(view)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Finalize sets tx.Timestamp (if unset) and tx.ID from CanonicalHash. Call
// once after Inputs/Outputs/Asset are fully populated and before signing.
func (tx *Transaction) Finalize() {
	if tx.Timestamp == 0 {
		tx.Timestamp = time.Now().UnixNano()
	}
	tx.ID = tx.CanonicalHash()
}

// SignInput signs the transaction's canonical hash with priv and stores
// the signature on Inputs[idx]. Finalize must have been called first.
func (tx *Transaction) SignInput(idx int, priv crypto.PrivateKey) error {
	if idx < 0 || idx >= len(tx.Inputs) {
		return fmt.Errorf("input index %d out of range", idx)
	}
	tx.Inputs[idx].Signature = crypto.Sign(priv, []byte(tx.ID))
	return nil
}

// VerifySignatures checks that tx.ID matches the recomputed canonical hash
// and that every input carries a valid signature from its sole owner.
// Multi-owner (threshold) inputs are out of scope for this subsystem —
// elections require single-signer inputs, and votes here are always
// single-signer too.
func (tx *Transaction) VerifySignatures() error {
	if want := tx.CanonicalHash(); tx.ID != want {
		return fmt.Errorf("transaction id mismatch: stored %s computed %s", tx.ID, want)
	}
	for i, in := range tx.Inputs {
		if len(in.Owners) != 1 {
			return fmt.Errorf("input %d: multi-owner inputs are not supported", i)
		}
		pub, err := crypto.PubKeyFromHex(in.Owners[0])
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if err := crypto.Verify(pub, []byte(tx.ID), in.Signature); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}

// AssetID returns the ID this transaction's asset is filed under: its own
// ID for a CREATE-family transaction, or the referenced asset's ID for a
// TRANSFER/VOTE.
func (tx *Transaction) AssetID() string {
	if tx.Asset.ID != "" {
		return tx.Asset.ID
	}
	return tx.ID
}
