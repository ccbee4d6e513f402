// Package validator implements the Validator View: a
// read-only snapshot of the consensus-maintained validator set, keyed by
// public key, at a given height.
package validator

import (
	"fmt"
	"sort"

	"github.com/tolchain/election/crypto"
)

// Validator is a single member of the set: a public key and its voting
// power. PublicKey is always hex-encoded ed25519 once it has crossed the
// View boundary — base64, if the feed uses it, is decoded there and never
// seen downstream.
type Validator struct {
	PublicKey   string `json:"public_key"`
	VotingPower uint64 `json:"voting_power"`
}

// ValidatorChange records a height at which the feed's reported set
// differed from the previous committed change.
type ValidatorChange struct {
	Height     uint64      `json:"height"`
	Validators []Validator `json:"validators"`
}

// RawValidator is the shape the external consensus feed delivers:
// get_validators(height?) returning {public_key:{value: base64},
// voting_power: int} entries.
type RawValidator struct {
	PublicKey struct {
		Value string `json:"value"` // base64
	} `json:"public_key"`
	VotingPower int64 `json:"voting_power"`
}

// Feed is the external consensus engine's validator-change interface
// consumed by View but never by package election directly.
type Feed interface {
	GetValidators(height *uint64) ([]RawValidator, error)
	GetValidatorChange(height uint64) (*ValidatorChange, error)
	LatestHeight() (uint64, bool, error)
}

// View wraps a Feed and exposes the decoded, hex-keyed snapshot the rest
// of the election subsystem consumes.
type View struct {
	feed Feed
}

// New returns a View backed by feed.
func New(feed Feed) *View {
	return &View{feed: feed}
}

// ValidatorsAt returns the validator set at height as a map of hex public
// key to voting power. A nil height means "current". Zero-power entries
// (which upstream consensus should never emit) are passed through as-is;
// election.IsSameTopology then requires an explicit zero-amount output for
// each of them, and an election that omits them fails the comparison.
func (v *View) ValidatorsAt(height *uint64) (map[string]uint64, error) {
	raw, err := v.feed.GetValidators(height)
	if err != nil {
		return nil, fmt.Errorf("get validators: %w", err)
	}
	out := make(map[string]uint64, len(raw))
	for i, r := range raw {
		pub, err := crypto.PubKeyFromBase64(r.PublicKey.Value)
		if err != nil {
			return nil, fmt.Errorf("validator %d: %w", i, err)
		}
		if r.VotingPower < 0 {
			return nil, fmt.Errorf("validator %d: negative voting power %d", i, r.VotingPower)
		}
		out[pub.Hex()] = uint64(r.VotingPower)
	}
	return out, nil
}

// LatestChange returns the most recently recorded ValidatorChange, or nil
// on a fresh chain with no changes.
func (v *View) LatestChange() (*ValidatorChange, error) {
	height, ok, err := v.feed.LatestHeight()
	if err != nil {
		return nil, fmt.Errorf("latest height: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return v.feed.GetValidatorChange(height)
}

// TotalPower sums voting power across a validator map.
func TotalPower(vals map[string]uint64) uint64 {
	var total uint64
	for _, p := range vals {
		total += p
	}
	return total
}

// SortedKeys returns validator public keys in a stable, deterministic
// order, for walking a validator map reproducibly.
func SortedKeys(vals map[string]uint64) []string {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
