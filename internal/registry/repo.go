package registry

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

// Repository manages persistence for tokens and operator approvals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateToken(ctx context.Context, token *models.Token) error
	FindToken(ctx context.Context, collectionID uuid.UUID, tokenID string) (*models.Token, error)
	TokenExists(ctx context.Context, collectionID uuid.UUID, tokenID string) (bool, error)
	UpdateTokenOwner(ctx context.Context, id uuid.UUID, owner evm.Address) error
	UpdateTokenApproved(ctx context.Context, id uuid.UUID, approved evm.Address) error
	CountByOwner(ctx context.Context, collectionID uuid.UUID, owner evm.Address) (int64, error)
	ListByOwner(ctx context.Context, collectionID uuid.UUID, owner evm.Address, cursor *pagination.Cursor, limit int) ([]models.Token, error)
	UpsertOperatorApproval(ctx context.Context, approval *models.OperatorApproval) error
	FindOperatorApproval(ctx context.Context, collectionID uuid.UUID, owner, operator evm.Address) (*models.OperatorApproval, error)
	FindCollectionByAddress(ctx context.Context, address evm.Address) (*models.Collection, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a registry repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateToken(ctx context.Context, token *models.Token) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *repository) FindToken(ctx context.Context, collectionID uuid.UUID, tokenID string) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND token_id = ?", collectionID, tokenID).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *repository) TokenExists(ctx context.Context, collectionID uuid.UUID, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Token{}).
		Where("collection_id = ? AND token_id = ?", collectionID, tokenID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) UpdateTokenOwner(ctx context.Context, id uuid.UUID, owner evm.Address) error {
	return r.db.WithContext(ctx).Model(&models.Token{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"owner_address": owner,
			"approved":      evm.ZeroAddress,
			"updated_at":    time.Now(),
		}).Error
}

func (r *repository) UpdateTokenApproved(ctx context.Context, id uuid.UUID, approved evm.Address) error {
	return r.db.WithContext(ctx).Model(&models.Token{}).
		Where("id = ?", id).
		Update("approved", approved).Error
}

func (r *repository) CountByOwner(ctx context.Context, collectionID uuid.UUID, owner evm.Address) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Token{}).
		Where("collection_id = ? AND owner_address = ?", collectionID, owner).
		Count(&count).Error
	return count, err
}

func (r *repository) ListByOwner(ctx context.Context, collectionID uuid.UUID, owner evm.Address, cursor *pagination.Cursor, limit int) ([]models.Token, error) {
	q := r.db.WithContext(ctx).
		Where("collection_id = ? AND owner_address = ?", collectionID, owner).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit)
	if cursor != nil {
		q = q.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var tokens []models.Token
	if err := q.Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *repository) UpsertOperatorApproval(ctx context.Context, approval *models.OperatorApproval) error {
	existing, err := r.FindOperatorApproval(ctx, approval.CollectionID, approval.Owner, approval.Operator)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(approval).Error
	}
	return r.db.WithContext(ctx).Model(&models.OperatorApproval{}).
		Where("id = ?", existing.ID).
		Update("approved", approval.Approved).Error
}

func (r *repository) FindCollectionByAddress(ctx context.Context, address evm.Address) (*models.Collection, error) {
	var col models.Collection
	err := r.db.WithContext(ctx).
		Where("address = ?", address).
		First(&col).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &col, nil
}

func (r *repository) FindOperatorApproval(ctx context.Context, collectionID uuid.UUID, owner, operator evm.Address) (*models.OperatorApproval, error) {
	var approval models.OperatorApproval
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND owner_address = ? AND operator_address = ?", collectionID, owner, operator).
		First(&approval).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &approval, nil
}
