package collection

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/evm"
	"github.com/mintforge/collections-backend/pkg/pagination"
)

// Repository manages persistence for collections, their catalogues and the
// permission grant tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCollection(ctx context.Context, col *models.Collection) error
	FindByAddress(ctx context.Context, address evm.Address) (*models.Collection, error)
	ListCollections(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Collection, error)
	UpdateCollection(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateItems(ctx context.Context, items []*models.Item) error
	FindItem(ctx context.Context, collectionID uuid.UUID, ordinal int64) (*models.Item, error)
	FindItems(ctx context.Context, collectionID uuid.UUID, ordinals []int64) ([]models.Item, error)
	ListItems(ctx context.Context, collectionID uuid.UUID, cursor *pagination.OrdinalCursor, limit int) ([]models.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error

	HasMinterGrant(ctx context.Context, collectionID uuid.UUID, address evm.Address) (bool, error)
	SetMinterGrant(ctx context.Context, collectionID uuid.UUID, address evm.Address, granted bool) error
	ListMinterGrants(ctx context.Context, collectionID uuid.UUID) ([]models.MinterGrant, error)

	HasManagerGrant(ctx context.Context, collectionID uuid.UUID, address evm.Address) (bool, error)
	SetManagerGrant(ctx context.Context, collectionID uuid.UUID, address evm.Address, granted bool) error
	ListManagerGrants(ctx context.Context, collectionID uuid.UUID) ([]models.ManagerGrant, error)

	FindItemAllowance(ctx context.Context, collectionID uuid.UUID, ordinal int64, address evm.Address) (*models.ItemMinterAllowance, error)
	UpsertItemAllowance(ctx context.Context, row *models.ItemMinterAllowance) error

	HasItemManagerGrant(ctx context.Context, collectionID uuid.UUID, ordinal int64, address evm.Address) (bool, error)
	SetItemManagerGrant(ctx context.Context, collectionID uuid.UUID, ordinal int64, address evm.Address, granted bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a collection repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCollection(ctx context.Context, col *models.Collection) error {
	return r.db.WithContext(ctx).Create(col).Error
}

func (r *repository) FindByAddress(ctx context.Context, address evm.Address) (*models.Collection, error) {
	var col models.Collection
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&col).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &col, nil
}

func (r *repository) ListCollections(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Collection, error) {
	q := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var cols []models.Collection
	if err := q.Find(&cols).Error; err != nil {
		return nil, err
	}
	return cols, nil
}

func (r *repository) UpdateCollection(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&models.Collection{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreateItems(ctx context.Context, items []*models.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(items).Error
}

func (r *repository) FindItem(ctx context.Context, collectionID uuid.UUID, ordinal int64) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND ordinal = ?", collectionID, ordinal).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItems(ctx context.Context, collectionID uuid.UUID, ordinals []int64) ([]models.Item, error) {
	if len(ordinals) == 0 {
		return nil, nil
	}
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND ordinal IN ?", collectionID, ordinals).
		Find(&items).Error
	return items, err
}

func (r *repository) ListItems(ctx context.Context, collectionID uuid.UUID, cursor *pagination.OrdinalCursor, limit int) ([]models.Item, error) {
	q := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("ordinal ASC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("ordinal > ?", cursor.Ordinal)
	}
	var items []models.Item
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&models.Item{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) HasMinterGrant(ctx context.Context, collectionID uuid.UUID, address evm.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MinterGrant{}).
		Where("collection_id = ? AND address = ?", collectionID, address).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SetMinterGrant(ctx context.Context, collectionID uuid.UUID, address evm.Address, granted bool) error {
	if granted {
		return r.db.WithContext(ctx).Create(&models.MinterGrant{CollectionID: collectionID, Address: address}).Error
	}
	return r.db.WithContext(ctx).
		Where("collection_id = ? AND address = ?", collectionID, address).
		Delete(&models.MinterGrant{}).Error
}

func (r *repository) ListMinterGrants(ctx context.Context, collectionID uuid.UUID) ([]models.MinterGrant, error) {
	var grants []models.MinterGrant
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}

func (r *repository) HasManagerGrant(ctx context.Context, collectionID uuid.UUID, address evm.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ManagerGrant{}).
		Where("collection_id = ? AND address = ?", collectionID, address).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SetManagerGrant(ctx context.Context, collectionID uuid.UUID, address evm.Address, granted bool) error {
	if granted {
		return r.db.WithContext(ctx).Create(&models.ManagerGrant{CollectionID: collectionID, Address: address}).Error
	}
	return r.db.WithContext(ctx).
		Where("collection_id = ? AND address = ?", collectionID, address).
		Delete(&models.ManagerGrant{}).Error
}

func (r *repository) ListManagerGrants(ctx context.Context, collectionID uuid.UUID) ([]models.ManagerGrant, error) {
	var grants []models.ManagerGrant
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("created_at ASC").
		Find(&grants).Error
	return grants, err
}

func (r *repository) FindItemAllowance(ctx context.Context, collectionID uuid.UUID, ordinal int64, address evm.Address) (*models.ItemMinterAllowance, error) {
	var row models.ItemMinterAllowance
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND item_ordinal = ? AND address = ?", collectionID, ordinal, address).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) UpsertItemAllowance(ctx context.Context, row *models.ItemMinterAllowance) error {
	existing, err := r.FindItemAllowance(ctx, row.CollectionID, row.ItemOrdinal, row.Address)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(row).Error
	}
	return r.db.WithContext(ctx).Model(&models.ItemMinterAllowance{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"unlimited":  row.Unlimited,
			"remaining":  row.Remaining,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) HasItemManagerGrant(ctx context.Context, collectionID uuid.UUID, ordinal int64, address evm.Address) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ItemManagerGrant{}).
		Where("collection_id = ? AND item_ordinal = ? AND address = ?", collectionID, ordinal, address).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SetItemManagerGrant(ctx context.Context, collectionID uuid.UUID, ordinal int64, address evm.Address, granted bool) error {
	if granted {
		return r.db.WithContext(ctx).Create(&models.ItemManagerGrant{
			CollectionID: collectionID,
			ItemOrdinal:  ordinal,
			Address:      address,
		}).Error
	}
	return r.db.WithContext(ctx).
		Where("collection_id = ? AND item_ordinal = ? AND address = ?", collectionID, ordinal, address).
		Delete(&models.ItemManagerGrant{}).Error
}
