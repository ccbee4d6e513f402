// Package migration implements the election subtype that schedules a
// chain migration: a future height at which block production halts for an
// upgrade. It has no validator-set effect, so OnApproval returns nil and
// records the halt height directly on the chain facade instead.
package migration

import (
	"fmt"

	"github.com/tolchain/election/core"
	"github.com/tolchain/election/election"
)

// Operation is this subtype's catalogue key.
const Operation core.Operation = "CHAIN_MIGRATION"

func init() {
	election.Register(election.Type{
		Operation:            Operation,
		ValidateCustomSchema: validateSchema,
		OnApproval:           onApproval,
	})
}

func validateSchema(tx *core.Transaction) error {
	_, err := decodeHaltHeight(tx)
	return err
}

func onApproval(chain election.Chain, e *election.Election, newHeight uint64) (*election.ValidatorUpdate, error) {
	haltHeight, err := decodeHaltHeight(e.Tx)
	if err != nil {
		return nil, err
	}
	if haltHeight <= newHeight {
		return nil, fmt.Errorf("migration: halt height %d already passed at %d", haltHeight, newHeight)
	}
	if err := chain.RecordMigrationHalt(haltHeight); err != nil {
		return nil, fmt.Errorf("record migration halt: %w", err)
	}
	return nil, nil
}

func decodeHaltHeight(tx *core.Transaction) (uint64, error) {
	raw, ok := tx.Asset.Data["halt_height"]
	if !ok {
		return 0, fmt.Errorf("asset.data.halt_height is required")
	}
	switch v := raw.(type) {
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("asset.data.halt_height must be positive")
		}
		return uint64(v), nil
	case uint64:
		if v == 0 {
			return 0, fmt.Errorf("asset.data.halt_height must be positive")
		}
		return v, nil
	case int:
		if v <= 0 {
			return 0, fmt.Errorf("asset.data.halt_height must be positive")
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("asset.data.halt_height must be a number")
	}
}

// NewPayload builds the asset.data map for Generate.
func NewPayload(haltHeight uint64) map[string]any {
	return map[string]any{"halt_height": haltHeight}
}
