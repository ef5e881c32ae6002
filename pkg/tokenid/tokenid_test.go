package tokenid

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		itemID uint64
		issued *uint256.Int
	}{
		{"zeros", 0, uint256.NewInt(0)},
		{"first issue", 0, uint256.NewInt(1)},
		{"small", 3, uint256.NewInt(42)},
		{"max item id", MaxItemID, uint256.NewInt(1)},
		{"max issued id", 7, maxIssuedID},
		{"both max", MaxItemID, maxIssuedID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := Encode(tc.itemID, tc.issued)
			if err != nil {
				t.Fatalf("Encode error: %v", err)
			}
			gotItem, gotIssued := Decode(id)
			if gotItem != tc.itemID {
				t.Errorf("item id: got %d want %d", gotItem, tc.itemID)
			}
			if !gotIssued.Eq(tc.issued) {
				t.Errorf("issued id: got %s want %s", gotIssued.Dec(), tc.issued.Dec())
			}
		})
	}
}

func TestEncodeBitLayout(t *testing.T) {
	// itemID 1, issuedID 1 → 1<<216 | 1.
	id, err := EncodeUint64(1, 1)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	want := new(uint256.Int).Lsh(uint256.NewInt(1), IssuedIDBits)
	want.Or(want, uint256.NewInt(1))
	if !id.Eq(want) {
		t.Fatalf("layout mismatch: got %s want %s", Hex(id), Hex(want))
	}
}

func TestEncodeBoundaries(t *testing.T) {
	if _, err := Encode(MaxItemID, uint256.NewInt(1)); err != nil {
		t.Fatalf("max item id should encode: %v", err)
	}
	if _, err := Encode(MaxItemID+1, uint256.NewInt(1)); !errors.Is(err, ErrInvalidItemID) {
		t.Fatalf("expected ErrInvalidItemID, got %v", err)
	}

	if _, err := Encode(0, maxIssuedID); err != nil {
		t.Fatalf("max issued id should encode: %v", err)
	}
	over := new(uint256.Int).Add(maxIssuedID, uint256.NewInt(1))
	if _, err := Encode(0, over); !errors.Is(err, ErrInvalidIssuedID) {
		t.Fatalf("expected ErrInvalidIssuedID, got %v", err)
	}
	if _, err := Encode(0, nil); !errors.Is(err, ErrInvalidIssuedID) {
		t.Fatalf("expected ErrInvalidIssuedID for nil, got %v", err)
	}
}

func TestHexParseRoundTrip(t *testing.T) {
	id, err := EncodeUint64(5, 12)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	encoded := Hex(id)
	if len(encoded) != 66 {
		t.Fatalf("canonical hex must be 66 chars, got %d (%s)", len(encoded), encoded)
	}
	parsed, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !parsed.Eq(id) {
		t.Fatalf("round-trip mismatch: %s != %s", Hex(parsed), encoded)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, tc := range []string{"", "123", "0x", "0xzz", "0x" + Hex(maxIssuedID)[2:] + "00"} {
		if _, err := Parse(tc); err == nil {
			t.Errorf("expected error for %q", tc)
		}
	}
}
