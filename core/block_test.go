package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tolchain/election/crypto"
)

func TestBlockSignVerify(t *testing.T) {
	priv, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	block := NewBlock(1, "prevhash", pub.Hex(), nil)
	block.Sign(priv)

	require.NoError(t, block.Verify(pub))
	require.NoError(t, block.VerifyIntegrity())
}

func TestBlockVerifyRejectsTamperedHeader(t *testing.T) {
	priv, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	block := NewBlock(1, "prevhash", pub.Hex(), nil)
	block.Sign(priv)
	block.Header.Height = 2

	require.Error(t, block.Verify(pub))
}

func TestComputeTxRootDeterministicAndOrderSensitive(t *testing.T) {
	a := &Transaction{ID: "tx-a"}
	b := &Transaction{ID: "tx-b"}

	root1 := ComputeTxRoot([]*Transaction{a, b})
	root2 := ComputeTxRoot([]*Transaction{a, b})
	require.Equal(t, root1, root2)

	reordered := ComputeTxRoot([]*Transaction{b, a})
	require.NotEqual(t, root1, reordered)
}

func TestComputeTxRootEmpty(t *testing.T) {
	require.NotEmpty(t, ComputeTxRoot(nil))
}
