// Package validatorupdate implements the election subtype that proposes
// adding, removing, or re-weighting a single validator. It self-registers
// into the default catalogue so election.Generate and the approval driver
// pick it up by operation tag alone.
package validatorupdate

import (
	"fmt"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/crypto"
	"github.com/tolchain/election/election"
)

// Operation is this subtype's catalogue key.
const Operation core.Operation = "VALIDATOR_UPDATE"

// Payload is the asset.data shape this subtype adds on top of the common
// election schema: the validator being changed and its proposed power.
// VotingPower of 0 proposes removing the validator entirely, matching the
// Tendermint ValidatorUpdate convention.
type Payload struct {
	PublicKey   string `json:"public_key"`
	VotingPower uint64 `json:"voting_power"`
}

func init() {
	election.Register(election.Type{
		Operation:            Operation,
		ValidateCustomSchema: validateSchema,
		OnApproval:           onApproval,
	})
}

func validateSchema(tx *core.Transaction) error {
	payload, err := decode(tx)
	if err != nil {
		return err
	}
	if payload.PublicKey == "" {
		return fmt.Errorf("public_key is required")
	}
	if _, err := crypto.PubKeyFromHex(payload.PublicKey); err != nil {
		return fmt.Errorf("public_key: %w", err)
	}
	return nil
}

func onApproval(chain election.Chain, e *election.Election, newHeight uint64) (*election.ValidatorUpdate, error) {
	payload, err := decode(e.Tx)
	if err != nil {
		return nil, err
	}
	return &election.ValidatorUpdate{
		PublicKey:   payload.PublicKey,
		VotingPower: payload.VotingPower,
	}, nil
}

func decode(tx *core.Transaction) (Payload, error) {
	raw, ok := tx.Asset.Data["validator_update"]
	if !ok {
		return Payload{}, fmt.Errorf("asset.data.validator_update is required")
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return Payload{}, fmt.Errorf("asset.data.validator_update must be an object")
	}
	pk, _ := m["public_key"].(string)
	var power uint64
	switch v := m["voting_power"].(type) {
	case float64:
		power = uint64(v)
	case uint64:
		power = v
	case int:
		power = uint64(v)
	default:
		return Payload{}, fmt.Errorf("asset.data.validator_update.voting_power must be a number")
	}
	return Payload{PublicKey: pk, VotingPower: power}, nil
}

// NewPayload builds the asset.data map for Generate. Exported so wallet /
// CLI callers don't have to know the raw map shape decode expects.
func NewPayload(publicKey string, votingPower uint64) map[string]any {
	return map[string]any{
		"validator_update": map[string]any{
			"public_key":   publicKey,
			"voting_power": votingPower,
		},
	}
}
