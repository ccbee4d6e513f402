package election

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/tolchain/election/core"
	"github.com/tolchain/election/crypto"
)

// Election wraps a CREATE-family transaction distributing one voting
// token per unit voting power to every current validator. It composes a
// *core.Transaction rather than extending it; concrete subtypes are
// Catalogue entries keyed by tx.Operation, not subclasses.
type Election struct {
	Tx *core.Transaction
}

// Voter is one (public_key, voting_power) allocation used to build an
// election's outputs.
type Voter struct {
	PublicKey   string
	VotingPower uint64
}

// Generate builds a new, unsigned Election for the given operation tag.
// It mutates data by inserting a fresh random seed, which breaks symmetry
// between otherwise-identical elections, builds one input owned by
// proposer and one output per voter, and runs the composed
// common+create+custom schema validation. The proposer's input
// is left unsigned; callers sign it (core.Transaction.SignInput) before
// submitting.
func Generate(catalogue *Catalogue, op core.Operation, proposer string, voters []Voter, data map[string]any, metadata map[string]any) (*Election, error) {
	typ, ok := catalogue.Lookup(op)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}

	if data == nil {
		data = make(map[string]any)
	}
	data["seed"] = uuid.NewString()

	outputs := make([]core.Output, len(voters))
	for i, v := range voters {
		outputs[i] = core.Output{PublicKeys: []string{v.PublicKey}, Amount: v.VotingPower}
	}

	tx := &core.Transaction{
		Operation: op,
		Inputs:    []core.Input{{Owners: []string{proposer}}},
		Outputs:   outputs,
		Asset:     core.Asset{Data: data},
		Metadata:  metadata,
	}
	tx.Finalize()

	if err := validateCommonSchema(tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if err := validateCreateSchema(tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if typ.ValidateCustomSchema != nil {
		if err := typ.ValidateCustomSchema(tx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
	}

	return &Election{Tx: tx}, nil
}

// validateCommonSchema is the structural check every transaction must
// pass, standing in for the base-transaction-layer "common transaction
// schema" an underlying transaction layer would normally own. Full JSON
// Schema enforcement against a wire format is explicitly out of this
// subsystem's scope; this only guards the shape package core itself
// assumes elsewhere (non-empty inputs/outputs, a non-empty operation tag).
func validateCommonSchema(tx *core.Transaction) error {
	if tx.Operation == "" {
		return fmt.Errorf("operation tag is required")
	}
	if len(tx.Inputs) == 0 {
		return fmt.Errorf("at least one input is required")
	}
	if len(tx.Outputs) == 0 {
		return fmt.Errorf("at least one output is required")
	}
	for i, in := range tx.Inputs {
		if len(in.Owners) == 0 {
			return fmt.Errorf("input %d: at least one owner is required", i)
		}
	}
	for i, out := range tx.Outputs {
		if len(out.PublicKeys) == 0 {
			return fmt.Errorf("output %d: at least one public key is required", i)
		}
	}
	return nil
}

// validateCreateSchema is the CREATE-family addition to the common
// schema: a single proposer input, a non-empty seed, and exactly one public
// key on every output — the parts of the create-family invariants that are cheap
// to check independently of chain state (validator-set membership and
// topology equality need chain state and are checked in Validate).
func validateCreateSchema(tx *core.Transaction) error {
	if len(tx.Inputs) != 1 || len(tx.Inputs[0].Owners) != 1 {
		return fmt.Errorf("election transactions take exactly one proposer input")
	}
	seed, ok := tx.Asset.Data["seed"]
	if !ok {
		return fmt.Errorf("asset.data.seed is required")
	}
	if s, ok := seed.(string); !ok || s == "" {
		return fmt.Errorf("asset.data.seed must be a non-empty string")
	}
	for i, out := range tx.Outputs {
		if len(out.PublicKeys) != 1 {
			return fmt.Errorf("output %d: exactly one public key is required", i)
		}
	}
	return nil
}

// DerivePK returns this election's derived public key.
func (e *Election) DerivePK() (string, error) {
	return DeriveElectionPK(e.Tx.ID)
}

// DeriveElectionPK derives the election's own voting-output public key
// from its transaction ID: base58(hex_decode(electionID)). Every vote
// output addressed to this string, rather than to any real validator
// key, is what CountVotes recognizes as a vote for this specific
// election.
func DeriveElectionPK(electionID string) (string, error) {
	raw, err := hex.DecodeString(electionID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidElectionID, err)
	}
	return crypto.Base58Encode(raw), nil
}

// IsSameTopology builds a {public_key: amount} map from outputs (failing
// on any output whose PublicKeys is not a singleton) and compares it to
// current, entry for entry. Comparison is total, not subset:
// every validator must appear with exactly its voting power and no extra
// or missing entries are tolerated. Map construction overwrites on a
// repeated key exactly as a plain assignment would, so two outputs to the
// same validator collapse into one entry — which then fails equality
// against current unless the collapsed amount happens to already be
// current's full allocation for that key, matching the source's own
// dict-assignment semantics.
func IsSameTopology(current map[string]uint64, outputs []core.Output) bool {
	voters := make(map[string]uint64, len(outputs))
	for _, out := range outputs {
		if len(out.PublicKeys) != 1 {
			return false
		}
		voters[out.PublicKeys[0]] = out.Amount
	}
	if len(voters) != len(current) {
		return false
	}
	for pk, power := range current {
		if v, ok := voters[pk]; !ok || v != power {
			return false
		}
	}
	return true
}

// Validate checks an Election against chain state and the set of
// transactions pending alongside it in the same block.
// pendingTxs must be explicit — never a package-level default.
func (e *Election) Validate(chain Chain, pendingTxs []*core.Transaction) (*Election, error) {
	committed, err := chain.IsCommitted(e.Tx.ID)
	if err != nil {
		return nil, fmt.Errorf("is committed: %w", err)
	}
	duplicate := committed
	if !duplicate {
		for _, tx := range pendingTxs {
			if tx.ID == e.Tx.ID {
				duplicate = true
				break
			}
		}
	}
	if duplicate {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, e.Tx.ID)
	}

	if err := e.Tx.VerifySignatures(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if len(e.Tx.Inputs) != 1 || len(e.Tx.Inputs[0].Owners) != 1 {
		return nil, fmt.Errorf("%w: proposer must be a single signer", ErrMultipleInputs)
	}
	proposer := e.Tx.Inputs[0].Owners[0]

	currentValidators, err := chain.ValidatorsAt(nil)
	if err != nil {
		return nil, fmt.Errorf("validators at acceptance height: %w", err)
	}
	if _, ok := currentValidators[proposer]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProposer, proposer)
	}

	if !IsSameTopology(currentValidators, e.Tx.Outputs) {
		return nil, ErrUnequalValidatorSet
	}

	return e, nil
}
