package evm

import "golang.org/x/crypto/sha3"

// Keccak256 computes the legacy (pre-NIST-padding) Keccak-256 digest of the
// concatenation of the given byte slices. This is the hash function used by
// the EVM for CREATE2 address derivation, so it must not be swapped for
// standard SHA3-256.
func Keccak256(data ...[]byte) Hash {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	var h Hash
	d.Sum(h[:0])
	return h
}
