package paytoken

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mintforge/collections-backend/pkg/db/models"
	"github.com/mintforge/collections-backend/pkg/evm"
)

// Repository persists pay token balances and spender allowances.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindAccount(ctx context.Context, address evm.Address) (*models.PayTokenAccount, error)
	CreateAccount(ctx context.Context, account *models.PayTokenAccount) error
	UpdateBalance(ctx context.Context, address evm.Address, balance decimal.Decimal) error

	FindAllowance(ctx context.Context, owner, spender evm.Address) (*models.PayTokenAllowance, error)
	UpsertAllowance(ctx context.Context, owner, spender evm.Address, amount decimal.Decimal) error
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

func (r *repository) FindAccount(ctx context.Context, address evm.Address) (*models.PayTokenAccount, error) {
	var account models.PayTokenAccount
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreateAccount(ctx context.Context, account *models.PayTokenAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) UpdateBalance(ctx context.Context, address evm.Address, balance decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.PayTokenAccount{}).
		Where("address = ?", address).
		Update("balance", balance).Error
}

func (r *repository) FindAllowance(ctx context.Context, owner, spender evm.Address) (*models.PayTokenAllowance, error) {
	var allowance models.PayTokenAllowance
	err := r.db.WithContext(ctx).
		Where("owner_address = ? AND spender_address = ?", owner, spender).
		First(&allowance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &allowance, nil
}

func (r *repository) UpsertAllowance(ctx context.Context, owner, spender evm.Address, amount decimal.Decimal) error {
	existing, err := r.FindAllowance(ctx, owner, spender)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.WithContext(ctx).Create(&models.PayTokenAllowance{
			Owner:   owner,
			Spender: spender,
			Amount:  amount,
		}).Error
	}
	return r.db.WithContext(ctx).Model(&models.PayTokenAllowance{}).
		Where("owner_address = ? AND spender_address = ?", owner, spender).
		Update("amount", amount).Error
}
