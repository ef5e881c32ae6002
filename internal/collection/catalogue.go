package collection

import (
	"context"

	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/enums"
	apperrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/evm"
)

// AddItems appends catalogue entries. Creator only, before completion. One
// invalid entry rejects the whole batch.
func (s *service) AddItems(ctx context.Context, input AddItemsInput) ([]models.Item, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "no items supplied")
	}

	var created []models.Item
	err := s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireCreator(col, input.Caller); err != nil {
			return err
		}
		if !col.Initialized {
			return apperrors.New(apperrors.CodeStateConflict, "collection not initialized")
		}
		if col.Completed {
			return apperrors.New(apperrors.CodeStateConflict, "catalogue is frozen after completion")
		}
		items, err := s.appendItems(ctx, tx, repo, col, input.Caller, input.Items)
		if err != nil {
			return err
		}
		created = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// appendItems validates and persists a batch of new items, assigning dense
// ordinals from the collection counter. Runs inside the caller's transaction.
func (s *service) appendItems(ctx context.Context, tx *gorm.DB, repo Repository, col *models.Collection, caller evm.Address, inputs []ItemInput) ([]models.Item, error) {
	rows := make([]*models.Item, 0, len(inputs))
	for i, in := range inputs {
		rarity, price, beneficiary, err := validateItemInput(i, in)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &models.Item{
			CollectionID: col.ID,
			Ordinal:      col.ItemCount + int64(i),
			Rarity:       rarity,
			Price:        price,
			Beneficiary:  beneficiary,
			Metadata:     in.Metadata,
		})
	}

	if err := repo.CreateItems(ctx, rows); err != nil {
		return nil, err
	}
	newCount := col.ItemCount + int64(len(rows))
	if err := repo.UpdateCollection(ctx, col.ID, map[string]any{"item_count": newCount}); err != nil {
		return nil, err
	}
	col.ItemCount = newCount

	items := make([]models.Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, *row)
		if err := s.emit(ctx, tx, col, caller, enums.EventItemAdded, map[string]any{
			"ordinal": row.Ordinal,
			"rarity":  string(row.Rarity),
			"price":   row.Price.String(),
		}); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// EditItemsSalesData updates price and beneficiary. Creator or a manager for
// each touched item.
func (s *service) EditItemsSalesData(ctx context.Context, input EditSalesDataInput) error {
	if len(input.Updates) == 0 {
		return apperrors.New(apperrors.CodeValidation, "no updates supplied")
	}

	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		for i, update := range input.Updates {
			item, err := s.requireItem(ctx, repo, col, update.Ordinal, i)
			if err != nil {
				return err
			}
			allowed, err := canManageItem(ctx, repo, col, update.Ordinal, input.Caller)
			if err != nil {
				return err
			}
			if !allowed {
				return apperrors.New(apperrors.CodeForbidden, "caller cannot manage item").
					WithDetails(map[string]any{"ordinal": update.Ordinal})
			}

			_, price, beneficiary, err := validateItemInput(i, ItemInput{
				Rarity:      string(item.Rarity),
				Price:       update.Price,
				Beneficiary: update.Beneficiary,
				Metadata:    item.Metadata,
			})
			if err != nil {
				return err
			}

			if err := repo.UpdateItem(ctx, item.ID, map[string]any{
				"price":       price,
				"beneficiary": beneficiary,
			}); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, col, input.Caller, enums.EventItemSalesDataUpdated, map[string]any{
				"ordinal":     update.Ordinal,
				"price":       price.String(),
				"beneficiary": beneficiary.Hex(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// EditItemsMetadata replaces item metadata. Requires the editable flag.
func (s *service) EditItemsMetadata(ctx context.Context, input EditMetadataInput) error {
	if len(input.Updates) == 0 {
		return apperrors.New(apperrors.CodeValidation, "no updates supplied")
	}

	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if !col.Editable {
			return apperrors.New(apperrors.CodeStateConflict, "collection is not editable")
		}
		for i, update := range input.Updates {
			if update.Metadata == "" {
				return apperrors.New(apperrors.CodeValidation, "item metadata cannot be empty").
					WithDetails(map[string]any{"index": i})
			}
			item, err := s.requireItem(ctx, repo, col, update.Ordinal, i)
			if err != nil {
				return err
			}
			allowed, err := canManageItem(ctx, repo, col, update.Ordinal, input.Caller)
			if err != nil {
				return err
			}
			if !allowed {
				return apperrors.New(apperrors.CodeForbidden, "caller cannot manage item").
					WithDetails(map[string]any{"ordinal": update.Ordinal})
			}
			if err := repo.UpdateItem(ctx, item.ID, map[string]any{"metadata": update.Metadata}); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, col, input.Caller, enums.EventItemMetadataUpdated, map[string]any{
				"ordinal": update.Ordinal,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// RescueItems lets the owner correct metadata and content hashes out of band.
// Empty metadata keeps the stored value; a non-empty content hash must be a
// 0x-prefixed 32-byte hash.
func (s *service) RescueItems(ctx context.Context, input RescueInput) error {
	if len(input.Updates) == 0 {
		return apperrors.New(apperrors.CodeValidation, "no updates supplied")
	}
	for i, update := range input.Updates {
		if update.ContentHash == "" {
			continue
		}
		if _, err := evm.ParseHash(update.ContentHash); err != nil {
			return apperrors.New(apperrors.CodeValidation, "content hash must be a 0x-prefixed 32-byte hash").
				WithDetails(map[string]any{"index": i})
		}
	}

	return s.withCollection(ctx, input.Collection, func(tx *gorm.DB, repo Repository, col *models.Collection) error {
		if err := requireOwner(col, input.Caller); err != nil {
			return err
		}
		for i, update := range input.Updates {
			item, err := s.requireItem(ctx, repo, col, update.Ordinal, i)
			if err != nil {
				return err
			}
			updates := map[string]any{"content_hash": update.ContentHash}
			if update.Metadata != "" {
				updates["metadata"] = update.Metadata
			}
			if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
				return err
			}
			if err := s.emit(ctx, tx, col, input.Caller, enums.EventItemRescued, map[string]any{
				"ordinal":      update.Ordinal,
				"content_hash": update.ContentHash,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) requireItem(ctx context.Context, repo Repository, col *models.Collection, ordinal int64, index int) (*models.Item, error) {
	item, err := repo.FindItem(ctx, col.ID, ordinal)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, "item not found").
			WithDetails(map[string]any{"index": index, "ordinal": ordinal})
	}
	return item, nil
}
