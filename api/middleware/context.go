package middleware

import (
	"context"

	"github.com/mintforge/collections-backend/pkg/evm"
)

type contextKey string

const (
	ctxCaller  contextKey = "caller"
	ctxRelayed contextKey = "relayed"
)

// CallerFromContext returns the authenticated signer address, or the zero
// address when the request is unauthenticated.
func CallerFromContext(ctx context.Context) evm.Address {
	if ctx == nil {
		return evm.ZeroAddress
	}
	if v, ok := ctx.Value(ctxCaller).(evm.Address); ok {
		return v
	}
	return evm.ZeroAddress
}

// RelayedFromContext reports whether the call arrived through the
// meta-transaction relay.
func RelayedFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxRelayed).(bool); ok {
		return v
	}
	return false
}

// WithCaller injects the signer address into the context.
func WithCaller(ctx context.Context, caller evm.Address) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCaller, caller)
}

// WithRelayed marks the request as relayed.
func WithRelayed(ctx context.Context, relayed bool) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRelayed, relayed)
}
