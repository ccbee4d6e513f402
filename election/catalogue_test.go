package election

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogueRegisterAndLookup(t *testing.T) {
	c := NewCatalogue()
	err := c.Register(Type{
		Operation:  testOp,
		OnApproval: func(Chain, *Election, uint64) (*ValidatorUpdate, error) { return nil, nil },
	})
	require.NoError(t, err)

	typ, ok := c.Lookup(testOp)
	require.True(t, ok)
	require.Equal(t, testOp, typ.Operation)

	_, ok = c.Lookup("UNKNOWN")
	require.False(t, ok)
}

func TestCatalogueRegisterRejectsMissingOnApproval(t *testing.T) {
	c := NewCatalogue()
	err := c.Register(Type{Operation: testOp})
	require.ErrorIs(t, err, ErrNotImplemented)

	_, ok := c.Lookup(testOp)
	require.False(t, ok, "a rejected registration must not appear in the catalogue")
}

func TestCatalogueRegisterPanicsOnDuplicate(t *testing.T) {
	c := NewCatalogue()
	onApproval := func(Chain, *Election, uint64) (*ValidatorUpdate, error) { return nil, nil }
	require.NoError(t, c.Register(Type{Operation: testOp, OnApproval: onApproval}))

	require.Panics(t, func() {
		_ = c.Register(Type{Operation: testOp, OnApproval: onApproval})
	})
}
