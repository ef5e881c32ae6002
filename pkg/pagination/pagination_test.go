package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default limit, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max limit, got %d", got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 42, time.UTC),
		ID:        uuid.New(),
	}
	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("round trip mismatch: %+v != %+v", got, want)
	}

	if c, err := ParseCursor(""); err != nil || c != nil {
		t.Fatalf("expected empty cursor to parse as nil, got %v %v", c, err)
	}
	if _, err := ParseCursor("!!not-base64!!"); err == nil {
		t.Fatal("expected malformed cursor to error")
	}
}

func TestOrdinalCursorRoundTrip(t *testing.T) {
	got, err := ParseOrdinalCursor(EncodeOrdinalCursor(OrdinalCursor{Ordinal: 39}))
	if err != nil {
		t.Fatalf("parse ordinal cursor: %v", err)
	}
	if got.Ordinal != 39 {
		t.Fatalf("expected ordinal 39, got %d", got.Ordinal)
	}
	if c, err := ParseOrdinalCursor(""); err != nil || c != nil {
		t.Fatalf("expected empty cursor to parse as nil, got %v %v", c, err)
	}
	if _, err := ParseOrdinalCursor("LTU="); err == nil { // "-5"
		t.Fatal("expected negative ordinal to be rejected")
	}
}
