// Package evm holds the fixed-size address and hash types the platform shares
// with the Ethereum tooling it mirrors, plus the deterministic-deployment math.
package evm

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an EVM account address.
const AddressLength = 20

// HashLength is the byte length of a keccak256 digest.
const HashLength = 32

// Address is a 20-byte EVM account address.
type Address [AddressLength]byte

// ZeroAddress is the null address (0x000...0).
var ZeroAddress Address

// ParseAddress decodes a 0x-prefixed, 40-hex-digit address string.
func ParseAddress(value string) (Address, error) {
	var a Address
	raw, err := parseHexBytes(value, AddressLength)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", value, err)
	}
	copy(a[:], raw)
	return a, nil
}

// MustAddress parses value and panics on failure. Intended for tests and
// static configuration defaults.
func MustAddress(value string) Address {
	a, err := ParseAddress(value)
	if err != nil {
		panic(err)
	}
	return a
}

// Hex returns the 0x-prefixed lowercase hex encoding.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the null address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Bytes returns a copy of the underlying bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

func (a Address) String() string {
	return a.Hex()
}

// Value implements driver.Valuer so addresses persist as hex strings.
func (a Address) Value() (driver.Value, error) {
	return a.Hex(), nil
}

// Scan implements sql.Scanner for hex string columns.
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = ZeroAddress
		return nil
	case string:
		parsed, err := ParseAddress(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		parsed, err := ParseAddress(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into evm.Address", src)
	}
}

// MarshalJSON encodes the address as a hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON decodes a hex string into the address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAddress(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Hash is a 32-byte keccak256 digest.
type Hash [HashLength]byte

// ZeroHash is the all-zero digest.
var ZeroHash Hash

// ParseHash decodes a 0x-prefixed, 64-hex-digit hash string.
func ParseHash(value string) (Hash, error) {
	var h Hash
	raw, err := parseHexBytes(value, HashLength)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", value, err)
	}
	copy(h[:], raw)
	return h, nil
}

// MustHash parses value and panics on failure.
func MustHash(value string) Hash {
	h, err := ParseHash(value)
	if err != nil {
		panic(err)
	}
	return h
}

// HashFromBytes copies raw into a Hash. Inputs shorter than 32 bytes are
// left-padded with zeros; longer inputs are rejected.
func HashFromBytes(raw []byte) (Hash, error) {
	var h Hash
	if len(raw) > HashLength {
		return h, fmt.Errorf("hash input exceeds %d bytes", HashLength)
	}
	copy(h[HashLength-len(raw):], raw)
	return h, nil
}

// Hex returns the 0x-prefixed lowercase hex encoding.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether the digest is all zeros.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Bytes returns a copy of the underlying bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashLength)
	copy(out, h[:])
	return out
}

func (h Hash) String() string {
	return h.Hex()
}

// Value implements driver.Valuer so hashes persist as hex strings.
func (h Hash) Value() (driver.Value, error) {
	return h.Hex(), nil
}

// Scan implements sql.Scanner for hex string columns.
func (h *Hash) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*h = ZeroHash
		return nil
	case string:
		parsed, err := ParseHash(v)
		if err != nil {
			return err
		}
		*h = parsed
		return nil
	case []byte:
		parsed, err := ParseHash(string(v))
		if err != nil {
			return err
		}
		*h = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into evm.Hash", src)
	}
}

// MarshalJSON encodes the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

// UnmarshalJSON decodes a hex string into the hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseHash(raw)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func parseHexBytes(value string, wantLen int) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return nil, fmt.Errorf("missing 0x prefix")
	}
	raw, err := hex.DecodeString(trimmed[2:])
	if err != nil {
		return nil, err
	}
	if len(raw) != wantLen {
		return nil, fmt.Errorf("expected %d bytes, got %d", wantLen, len(raw))
	}
	return raw, nil
}

// EqualAddresses reports byte equality, tolerating case differences in the
// original hex representations.
func EqualAddresses(a, b Address) bool {
	return bytes.Equal(a[:], b[:])
}
