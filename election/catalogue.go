package election

import (
	"fmt"
	"sync"

	"github.com/tolchain/election/core"
)

// Type is a concrete election subtype's entry in the catalogue: its
// operation tag, its custom schema check, its on-approval effect, and an
// optional override of the conclusion predicate. This is a small dispatch
// table keyed by operation tag, in place of virtual dispatch — modeled as
// a plain struct of function fields rather than an interface so
// Catalogue.Register can refuse a subtype that omits OnApproval at
// registration time, instead of discovering the gap the first time an
// election concludes.
type Type struct {
	Operation core.Operation

	// ValidateCustomSchema runs after the common+create schema checks.
	// nil means the subtype adds no custom schema constraints.
	ValidateCustomSchema func(tx *core.Transaction) error

	// OnApproval applies the subtype's effect once an election concludes
	// and returns the ValidatorUpdate (if any) to hand back to consensus.
	// Required: Catalogue.Register rejects a Type with OnApproval == nil.
	OnApproval func(chain Chain, e *Election, newHeight uint64) (*ValidatorUpdate, error)

	// HasConcluded overrides the default conclusion predicate (Tally +
	// Status). nil means use the default. Subtypes may add constraints
	// but must not relax the base two (single-shot crossing,
	// validator-set-unchanged).
	HasConcluded func(chain Chain, e *Election, pendingVotes []*core.Transaction) (bool, error)
}

// Catalogue is a registry of election subtypes keyed by operation tag.
// Safe for concurrent registration and lookup.
type Catalogue struct {
	mu    sync.RWMutex
	types map[core.Operation]Type
}

// NewCatalogue creates an empty Catalogue.
func NewCatalogue() *Catalogue {
	return &Catalogue{types: make(map[core.Operation]Type)}
}

// Register adds t to the catalogue. Returns ErrNotImplemented if t omits
// OnApproval. Panics on duplicate registration for the same operation —
// that is always a build-time wiring mistake, never a runtime condition.
func (c *Catalogue) Register(t Type) error {
	if t.OnApproval == nil {
		return fmt.Errorf("%w: operation %q", ErrNotImplemented, t.Operation)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.types[t.Operation]; exists {
		panic(fmt.Sprintf("election: subtype already registered for operation %q", t.Operation))
	}
	c.types[t.Operation] = t
	return nil
}

// Lookup returns the Type registered for op, if any.
func (c *Catalogue) Lookup(op core.Operation) (Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[op]
	return t, ok
}

// defaultCatalogue is the package-level registry concrete election
// subtypes self-register into from their init() functions, mirroring the
// teacher's global vm handler registry.
var defaultCatalogue = NewCatalogue()

// Register adds t to the default catalogue. Subtype packages call this
// from init(). Panics if t is malformed or already registered — see
// Catalogue.Register.
func Register(t Type) {
	if err := defaultCatalogue.Register(t); err != nil {
		panic(err)
	}
}

// DefaultCatalogue returns the package-level catalogue that Register
// writes into, for callers to pass to Generate and NewDriver.
func DefaultCatalogue() *Catalogue {
	return defaultCatalogue
}
