package validators

import (
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
)

// AddressField parses a 0x-prefixed address and reports the offending JSON
// field on failure.
func AddressField(value, field string) (evm.Address, error) {
	addr, err := evm.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		return evm.Address{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address").
			WithDetails(map[string]any{"field": field})
	}
	return addr, nil
}

// HashField parses a 0x-prefixed 32-byte hash.
func HashField(value, field string) (evm.Hash, error) {
	hash, err := evm.ParseHash(strings.TrimSpace(value))
	if err != nil {
		return evm.Hash{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hash").
			WithDetails(map[string]any{"field": field})
	}
	return hash, nil
}

// AmountField parses a non-negative base-unit integer amount.
func AmountField(value, field string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount").
			WithDetails(map[string]any{"field": field})
	}
	if amount.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative").
			WithDetails(map[string]any{"field": field})
	}
	return amount, nil
}

// AddressSliceField parses a batch of addresses, reporting the first bad index.
func AddressSliceField(values []string, field string) ([]evm.Address, error) {
	out := make([]evm.Address, 0, len(values))
	for i, raw := range values {
		addr, err := evm.ParseAddress(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address").
				WithDetails(map[string]any{"field": field, "index": i})
		}
		out = append(out, addr)
	}
	return out, nil
}
