package committee

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/evm"
)

// Repository persists committee membership and fee audit records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	IsMember(ctx context.Context, address evm.Address) (bool, error)
	AddMember(ctx context.Context, address evm.Address) error
	RemoveMember(ctx context.Context, address evm.Address) error
	ListMembers(ctx context.Context) ([]models.CommitteeMember, error)

	CreateFeeTransfer(ctx context.Context, transfer *models.FeeTransfer) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to the given connection.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) IsMember(ctx context.Context, address evm.Address) (bool, error) {
	var member models.CommitteeMember
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) AddMember(ctx context.Context, address evm.Address) error {
	return r.db.WithContext(ctx).Create(&models.CommitteeMember{Address: address}).Error
}

func (r *repository) RemoveMember(ctx context.Context, address evm.Address) error {
	return r.db.WithContext(ctx).
		Where("address = ?", address).
		Delete(&models.CommitteeMember{}).Error
}

func (r *repository) ListMembers(ctx context.Context) ([]models.CommitteeMember, error) {
	var members []models.CommitteeMember
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&members).Error
	return members, err
}

func (r *repository) CreateFeeTransfer(ctx context.Context, transfer *models.FeeTransfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}
