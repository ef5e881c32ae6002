package middleware

import (
	"context"
	"testing"

	"github.com/mintforge/collections-backend/pkg/evm"
)

func TestCallerContextRoundTrip(t *testing.T) {
	caller := evm.MustAddress("0xa00000000000000000000000000000000000000a")

	if got := CallerFromContext(context.Background()); !got.IsZero() {
		t.Fatalf("expected zero caller on empty context, got %s", got.Hex())
	}

	ctx := WithCaller(context.Background(), caller)
	if got := CallerFromContext(ctx); got != caller {
		t.Fatalf("expected %s, got %s", caller.Hex(), got.Hex())
	}
}

func TestRelayedContextRoundTrip(t *testing.T) {
	if RelayedFromContext(context.Background()) {
		t.Fatal("expected relayed to default to false")
	}
	if RelayedFromContext(nil) {
		t.Fatal("expected relayed to be false on nil context")
	}

	ctx := WithRelayed(context.Background(), true)
	if !RelayedFromContext(ctx) {
		t.Fatal("expected relayed flag to survive the round trip")
	}
	ctx = WithRelayed(ctx, false)
	if RelayedFromContext(ctx) {
		t.Fatal("expected relayed flag to be overwritten")
	}
}
