package evm

import (
	"encoding/hex"
	"errors"
)

// EIP-1167 minimal proxy bytecode, split around the 20-byte implementation
// address slot.
var (
	proxyCodePrefix, _ = hex.DecodeString("3d602d80600a3d3981f3363d3d373d3d3d363d73")
	proxyCodeSuffix, _ = hex.DecodeString("5af43d82803e903d91602b57fd5bf3")
)

// ErrZeroImplementation is returned when a proxy template is requested for
// the null address.
var ErrZeroImplementation = errors.New("evm: implementation address is zero")

// ProxyInitCode returns the minimal-proxy creation bytecode parameterized by
// the implementation address.
func ProxyInitCode(implementation Address) ([]byte, error) {
	if implementation.IsZero() {
		return nil, ErrZeroImplementation
	}
	code := make([]byte, 0, len(proxyCodePrefix)+AddressLength+len(proxyCodeSuffix))
	code = append(code, proxyCodePrefix...)
	code = append(code, implementation[:]...)
	code = append(code, proxyCodeSuffix...)
	return code, nil
}

// ProxyCodeHash returns keccak256 of the minimal-proxy creation bytecode for
// the implementation address.
func ProxyCodeHash(implementation Address) (Hash, error) {
	code, err := ProxyInitCode(implementation)
	if err != nil {
		return ZeroHash, err
	}
	return Keccak256(code), nil
}

// SaltHash derives the per-deployment salt as keccak256(salt ‖ deployer).
// The result doubles as the proof of creation embedded in each deployed
// collection: recomputing the CREATE2 address from it verifies provenance.
func SaltHash(salt Hash, deployer Address) Hash {
	return Keccak256(salt[:], deployer[:])
}

// ComputeAddress evaluates the CREATE2 formula
// keccak256(0xff ‖ factory ‖ saltHash ‖ codeHash)[12:]. The byte layout is
// exact, so addresses computed here match on-chain deployments.
func ComputeAddress(factory Address, saltHash Hash, codeHash Hash) Address {
	digest := Keccak256([]byte{0xff}, factory[:], saltHash[:], codeHash[:])
	var a Address
	copy(a[:], digest[12:])
	return a
}
