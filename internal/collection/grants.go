package collection

import (
	"context"

	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
)

// SetMinters toggles collection-wide minter grants. Creator only. Writing the
// value a grant already holds fails the whole batch.
func (s *service) SetMinters(ctx context.Context, input GlobalGrantInput) error {
	if err := validateGrantArrays(len(input.Addresses), len(input.Granted)); err != nil {
		return err
	}

	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireCreator(col, input.Caller); err != nil {
			return err
		}
		for i, addr := range input.Addresses {
			if addr.IsZero() {
				return apperrors.New(apperrors.CodeValidation, "minter address cannot be zero").
					WithDetails(map[string]any{"index": i})
			}
			granted := input.Granted[i]
			current, err := repo.HasMinterGrant(ctx, col.ID, addr)
			if err != nil {
				return err
			}
			if current == granted {
				return apperrors.New(apperrors.CodeStateConflict, "minter grant already holds value").
					WithDetails(map[string]any{"address": addr.Hex(), "granted": granted})
			}
			if err := repo.SetMinterGrant(ctx, col.ID, addr, granted); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, col, input.Caller, enums.EventMinterSet, map[string]any{
				"address": addr.Hex(),
				"granted": granted,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetManagers toggles collection-wide manager grants. Creator only.
func (s *service) SetManagers(ctx context.Context, input GlobalGrantInput) error {
	if err := validateGrantArrays(len(input.Addresses), len(input.Granted)); err != nil {
		return err
	}

	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireCreator(col, input.Caller); err != nil {
			return err
		}
		for i, addr := range input.Addresses {
			if addr.IsZero() {
				return apperrors.New(apperrors.CodeValidation, "manager address cannot be zero").
					WithDetails(map[string]any{"index": i})
			}
			granted := input.Granted[i]
			current, err := repo.HasManagerGrant(ctx, col.ID, addr)
			if err != nil {
				return err
			}
			if current == granted {
				return apperrors.New(apperrors.CodeStateConflict, "manager grant already holds value").
					WithDetails(map[string]any{"address": addr.Hex(), "granted": granted})
			}
			if err := repo.SetManagerGrant(ctx, col.ID, addr, granted); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, col, input.Caller, enums.EventManagerSet, map[string]any{
				"address": addr.Hex(),
				"granted": granted,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetItemMinters assigns per-item mint allowances. Three parallel arrays:
// ordinals, addresses and allowance amounts. Creator only. Writing an
// allowance equal to the stored one fails the batch.
func (s *service) SetItemMinters(ctx context.Context, input ItemMinterInput) error {
	n := len(input.Ordinals)
	if n == 0 {
		return apperrors.New(apperrors.CodeValidation, "no grants supplied")
	}
	if len(input.Addresses) != n || len(input.Allowances) != n {
		return apperrors.New(apperrors.CodeValidation, "grant array lengths do not match").
			WithDetails(map[string]any{
				"ordinals":   n,
				"addresses":  len(input.Addresses),
				"allowances": len(input.Allowances),
			})
	}

	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireCreator(col, input.Caller); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			addr := input.Addresses[i]
			if addr.IsZero() {
				return apperrors.New(apperrors.CodeValidation, "minter address cannot be zero").
					WithDetails(map[string]any{"index": i})
			}
			if _, err := s.requireItem(ctx, repo, col, input.Ordinals[i], i); err != nil {
				return err
			}
			allowance, err := ParseAllowance(input.Allowances[i])
			if err != nil {
				return apperrors.Wrap(apperrors.CodeValidation, err, "invalid allowance").
					WithDetails(map[string]any{"index": i})
			}

			existing, err := repo.FindItemAllowance(ctx, col.ID, input.Ordinals[i], addr)
			if err != nil {
				return err
			}
			if existing != nil && allowanceEqualsRow(allowance, existing) {
				return apperrors.New(apperrors.CodeStateConflict, "item minter allowance already holds value").
					WithDetails(map[string]any{"ordinal": input.Ordinals[i], "address": addr.Hex()})
			}
			if existing == nil && allowance.IsZero() {
				return apperrors.New(apperrors.CodeStateConflict, "item minter allowance already holds value").
					WithDetails(map[string]any{"ordinal": input.Ordinals[i], "address": addr.Hex()})
			}

			if err := repo.UpsertItemAllowance(ctx, &models.ItemMinterAllowance{
				CollectionID: col.ID,
				ItemOrdinal:  input.Ordinals[i],
				Address:      addr,
				Unlimited:    allowance.Unlimited,
				Remaining:    allowance.Remaining,
			}); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, col, input.Caller, enums.EventItemMinterSet, map[string]any{
				"ordinal":   input.Ordinals[i],
				"address":   addr.Hex(),
				"allowance": allowance.Wire(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetItemManagers toggles per-item manager grants. Creator only.
func (s *service) SetItemManagers(ctx context.Context, input ItemManagerInput) error {
	n := len(input.Ordinals)
	if n == 0 {
		return apperrors.New(apperrors.CodeValidation, "no grants supplied")
	}
	if len(input.Addresses) != n || len(input.Granted) != n {
		return apperrors.New(apperrors.CodeValidation, "grant array lengths do not match").
			WithDetails(map[string]any{
				"ordinals":  n,
				"addresses": len(input.Addresses),
				"granted":   len(input.Granted),
			})
	}

	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireCreator(col, input.Caller); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			addr := input.Addresses[i]
			if addr.IsZero() {
				return apperrors.New(apperrors.CodeValidation, "manager address cannot be zero").
					WithDetails(map[string]any{"index": i})
			}
			if _, err := s.requireItem(ctx, repo, col, input.Ordinals[i], i); err != nil {
				return err
			}
			granted := input.Granted[i]
			current, err := repo.HasItemManagerGrant(ctx, col.ID, input.Ordinals[i], addr)
			if err != nil {
				return err
			}
			if current == granted {
				return apperrors.New(apperrors.CodeStateConflict, "item manager grant already holds value").
					WithDetails(map[string]any{"ordinal": input.Ordinals[i], "address": addr.Hex()})
			}
			if err := repo.SetItemManagerGrant(ctx, col.ID, input.Ordinals[i], addr, granted); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, col, input.Caller, enums.EventItemManagerSet, map[string]any{
				"ordinal": input.Ordinals[i],
				"address": addr.Hex(),
				"granted": granted,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func validateGrantArrays(addresses, granted int) error {
	if addresses == 0 {
		return apperrors.New(apperrors.CodeValidation, "no grants supplied")
	}
	if addresses != granted {
		return apperrors.New(apperrors.CodeValidation, "grant array lengths do not match").
			WithDetails(map[string]any{"addresses": addresses, "granted": granted})
	}
	return nil
}

func allowanceEqualsRow(a Allowance, row *models.ItemMinterAllowance) bool {
	if a.Unlimited != row.Unlimited {
		return false
	}
	if a.Unlimited {
		return true
	}
	return a.Remaining.Equal(row.Remaining)
}
