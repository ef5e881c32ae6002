package collection

import (
	"context"

	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
)

// Initialize configures the collection exactly once. Approval starts true;
// the committee toggles it off when a collection misbehaves.
func (s *service) Initialize(ctx context.Context, input InitializeInput) error {
	if input.Name == "" || input.Symbol == "" {
		return apperrors.New(apperrors.CodeValidation, "name and symbol are required")
	}
	if input.Creator.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "creator address is required")
	}

	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireOwner(col, input.Caller); err != nil {
			return err
		}
		if col.Initialized {
			return apperrors.New(apperrors.CodeStateConflict, "collection already initialized")
		}

		updates := map[string]any{
			"name":            input.Name,
			"symbol":          input.Symbol,
			"base_uri":        input.BaseURI,
			"creator_address": input.Creator,
			"initialized":     true,
			"approved":        true,
			"editable":        input.IsEditable,
		}

		if len(input.Items) > 0 {
			if _, err := s.appendItems(ctx, tx, repo, col, input.Caller, input.Items); err != nil {
				return err
			}
		}

		if input.ShouldComplete {
			now := s.now()
			updates["completed"] = true
			updates["completed_at"] = now
		}

		if err := repo.UpdateCollection(ctx, col.ID, updates); err != nil {
			return err
		}

		if err := s.emitOnce(ctx, tx, col, input.Caller, enums.EventCollectionInitialized, map[string]any{
			"name":    input.Name,
			"symbol":  input.Symbol,
			"creator": input.Creator.Hex(),
		}); err != nil {
			return err
		}
		if input.ShouldComplete {
			return s.emitOnce(ctx, tx, col, input.Caller, enums.EventCollectionCompleted, nil)
		}
		return nil
	})
}

// SetApproved toggles the committee approval flag. Owner only; writing the
// current value is rejected.
func (s *service) SetApproved(ctx context.Context, input FlagInput) error {
	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireOwner(col, input.Caller); err != nil {
			return err
		}
		if col.Approved == input.Value {
			return apperrors.New(apperrors.CodeStateConflict, "approval flag unchanged")
		}
		if err := repo.UpdateCollection(ctx, col.ID, map[string]any{"approved": input.Value}); err != nil {
			return err
		}
		return s.emit(ctx, tx, col, input.Caller, enums.EventApprovalChanged, map[string]any{
			"approved": input.Value,
		})
	})
}

// SetEditable toggles whether managers may edit item metadata.
func (s *service) SetEditable(ctx context.Context, input FlagInput) error {
	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireOwner(col, input.Caller); err != nil {
			return err
		}
		if col.Editable == input.Value {
			return apperrors.New(apperrors.CodeStateConflict, "editable flag unchanged")
		}
		if err := repo.UpdateCollection(ctx, col.ID, map[string]any{"editable": input.Value}); err != nil {
			return err
		}
		return s.emit(ctx, tx, col, input.Caller, enums.EventEditableChanged, map[string]any{
			"editable": input.Value,
		})
	})
}

// SetBaseURI replaces the metadata base URI.
func (s *service) SetBaseURI(ctx context.Context, input BaseURIInput) error {
	if input.BaseURI == "" {
		return apperrors.New(apperrors.CodeValidation, "base uri cannot be empty")
	}
	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireOwner(col, input.Caller); err != nil {
			return err
		}
		if err := repo.UpdateCollection(ctx, col.ID, map[string]any{"base_uri": input.BaseURI}); err != nil {
			return err
		}
		return s.emit(ctx, tx, col, input.Caller, enums.EventBaseURIChanged, map[string]any{
			"base_uri": input.BaseURI,
		})
	})
}

// Complete freezes the catalogue. One-way; the grace period starts here.
func (s *service) Complete(ctx context.Context, input CallerInput) error {
	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireCreator(col, input.Caller); err != nil {
			return err
		}
		if !col.Initialized {
			return apperrors.New(apperrors.CodeStateConflict, "collection not initialized")
		}
		if col.Completed {
			return apperrors.New(apperrors.CodeStateConflict, "collection already completed")
		}
		now := s.now()
		if err := repo.UpdateCollection(ctx, col.ID, map[string]any{
			"completed":    true,
			"completed_at": now,
		}); err != nil {
			return err
		}
		return s.emitOnce(ctx, tx, col, input.Caller, enums.EventCollectionCompleted, nil)
	})
}

// TransferOwnership hands the owner role to a new address.
func (s *service) TransferOwnership(ctx context.Context, input TransferRoleInput) error {
	if input.To.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "new owner cannot be the zero address")
	}
	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireOwner(col, input.Caller); err != nil {
			return err
		}
		if err := repo.UpdateCollection(ctx, col.ID, map[string]any{"owner_address": input.To}); err != nil {
			return err
		}
		return s.emit(ctx, tx, col, input.Caller, enums.EventOwnershipTransferred, map[string]any{
			"from": col.OwnerAddress.Hex(),
			"to":   input.To.Hex(),
		})
	})
}

// TransferCreatorship hands the creator role to a new address. Either the
// owner or the current creator may do this.
func (s *service) TransferCreatorship(ctx context.Context, input TransferRoleInput) error {
	if input.To.IsZero() {
		return apperrors.New(apperrors.CodeValidation, "new creator cannot be the zero address")
	}
	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireOwnerOrCreator(col, input.Caller); err != nil {
			return err
		}
		if err := repo.UpdateCollection(ctx, col.ID, map[string]any{"creator_address": input.To}); err != nil {
			return err
		}
		return s.emit(ctx, tx, col, input.Caller, enums.EventCreatorshipTransferred, map[string]any{
			"from": col.CreatorAddress.Hex(),
			"to":   input.To.Hex(),
		})
	})
}
