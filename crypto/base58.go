package crypto

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Base58Encode is the encoding half of election public key derivation
// used for election public key derivation: base58(hex_decode(id)).
func Base58Encode(raw []byte) string {
	return base58.Encode(raw)
}

// Base58Decode reverses Base58Encode. Returned only for completeness and
// tests; the election subsystem never needs to decode an election pk back
// to bytes.
func Base58Decode(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base58: %w", err)
	}
	return b, nil
}
