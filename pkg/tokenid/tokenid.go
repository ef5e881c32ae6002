// Package tokenid packs and unpacks the 256-bit token identifiers issued by
// collections. A token ID is a composite of the catalogue item ordinal (high
// 40 bits) and the 1-based issued sequence number (low 216 bits).
package tokenid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

const (
	// ItemIDBits is the width of the item ordinal component.
	ItemIDBits = 40
	// IssuedIDBits is the width of the issued sequence number component.
	IssuedIDBits = 216
)

// MaxItemID is the largest encodable item ordinal (2^40 − 1).
const MaxItemID = uint64(1)<<ItemIDBits - 1

var (
	ErrInvalidItemID   = errors.New("tokenid: item id exceeds 40-bit range")
	ErrInvalidIssuedID = errors.New("tokenid: issued id exceeds 216-bit range")
)

// maxIssuedID is 2^216 − 1.
var maxIssuedID = func() *uint256.Int {
	one := uint256.NewInt(1)
	max := new(uint256.Int).Lsh(one, IssuedIDBits)
	return max.Sub(max, one)
}()

// issuedMask selects the low 216 bits of a token ID.
var issuedMask = new(uint256.Int).Set(maxIssuedID)

// Encode packs an item ordinal and issued sequence number into a token ID.
// Out-of-range components are rejected, never truncated.
func Encode(itemID uint64, issuedID *uint256.Int) (*uint256.Int, error) {
	if itemID > MaxItemID {
		return nil, fmt.Errorf("%w: %d", ErrInvalidItemID, itemID)
	}
	if issuedID == nil {
		return nil, fmt.Errorf("%w: nil", ErrInvalidIssuedID)
	}
	if issuedID.Gt(maxIssuedID) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIssuedID, issuedID.Dec())
	}
	id := new(uint256.Int).SetUint64(itemID)
	id.Lsh(id, IssuedIDBits)
	return id.Or(id, issuedID), nil
}

// EncodeUint64 packs components that both fit in 64 bits. Every rarity cap in
// the platform is far below 2^64, so issuance uses this path.
func EncodeUint64(itemID, issuedID uint64) (*uint256.Int, error) {
	return Encode(itemID, uint256.NewInt(issuedID))
}

// Decode splits a token ID back into its item ordinal and issued sequence
// number. Decode(Encode(a, b)) == (a, b) for all in-range pairs.
func Decode(id *uint256.Int) (itemID uint64, issuedID *uint256.Int) {
	item := new(uint256.Int).Rsh(id, IssuedIDBits)
	issued := new(uint256.Int).And(id, issuedMask)
	return item.Uint64(), issued
}

// Hex renders a token ID as a fixed-width 0x-prefixed 64-digit hex string,
// the canonical storage and wire format.
func Hex(id *uint256.Int) string {
	b := id.Bytes32()
	return "0x" + hex.EncodeToString(b[:])
}

// Parse reads a token ID from its canonical hex form.
func Parse(value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return nil, fmt.Errorf("tokenid: missing 0x prefix in %q", value)
	}
	raw, err := hex.DecodeString(trimmed[2:])
	if err != nil {
		return nil, fmt.Errorf("tokenid: %w", err)
	}
	if len(raw) == 0 || len(raw) > 32 {
		return nil, fmt.Errorf("tokenid: expected 1-32 bytes, got %d", len(raw))
	}
	return new(uint256.Int).SetBytes(raw), nil
}
