package collection

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/mintforge/collections-backend/pkg/errors"
)

// maxUint256 is the wire sentinel for an unlimited mint allowance.
var maxUint256 = func() decimal.Decimal {
	d, err := decimal.NewFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	if err != nil {
		panic(err)
	}
	return d
}()

// Allowance is a per-item mint budget. Unlimited allowances never decrement;
// finite ones carry the remaining count.
type Allowance struct {
	Unlimited bool
	Remaining decimal.Decimal
}

// ParseAllowance converts the wire value into an Allowance. The max-uint256
// value maps to Unlimited; anything above it is rejected.
func ParseAllowance(value string) (Allowance, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Allowance{}, apperrors.New(apperrors.CodeValidation, "allowance value is required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Allowance{}, apperrors.Wrap(apperrors.CodeValidation, err, "invalid allowance value")
	}
	if d.IsNegative() {
		return Allowance{}, apperrors.New(apperrors.CodeValidation, "allowance cannot be negative")
	}
	if d.GreaterThan(maxUint256) {
		return Allowance{}, apperrors.New(apperrors.CodeValidation, "allowance exceeds uint256 range")
	}
	if d.Equal(maxUint256) {
		return Allowance{Unlimited: true, Remaining: decimal.Zero}, nil
	}
	return Allowance{Remaining: d}, nil
}

// IsZero reports whether the allowance grants nothing.
func (a Allowance) IsZero() bool {
	return !a.Unlimited && a.Remaining.IsZero()
}

// Wire returns the canonical wire representation.
func (a Allowance) Wire() string {
	if a.Unlimited {
		return maxUint256.String()
	}
	return a.Remaining.String()
}

// Equal reports whether both allowances grant the same budget.
func (a Allowance) Equal(other Allowance) bool {
	if a.Unlimited != other.Unlimited {
		return false
	}
	if a.Unlimited {
		return true
	}
	return a.Remaining.Equal(other.Remaining)
}
