package factory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/evm"
)

// Repository persists CREATE2 deployment records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateDeployment(ctx context.Context, deployment *models.Deployment) error
	FindDeploymentByAddress(ctx context.Context, address evm.Address) (*models.Deployment, error)
	FindDeploymentBySaltHash(ctx context.Context, saltHash evm.Hash) (*models.Deployment, error)
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

func (r *repository) CreateDeployment(ctx context.Context, deployment *models.Deployment) error {
	return r.db.WithContext(ctx).Create(deployment).Error
}

func (r *repository) FindDeploymentByAddress(ctx context.Context, address evm.Address) (*models.Deployment, error) {
	var deployment models.Deployment
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&deployment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (r *repository) FindDeploymentBySaltHash(ctx context.Context, saltHash evm.Hash) (*models.Deployment, error) {
	var deployment models.Deployment
	err := r.db.WithContext(ctx).Where("salt_hash = ?", saltHash).First(&deployment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &deployment, nil
}
