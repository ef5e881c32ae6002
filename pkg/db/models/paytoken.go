package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintforge/collections-backend/pkg/evm"
)

// PayTokenAccount holds one address's balance in the fungible payment token
// used for creation fees. Balances are base-unit integers in numeric(78,0).
type PayTokenAccount struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Address   evm.Address     `gorm:"column:address;type:varchar(42);not null;uniqueIndex"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(78,0);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// PayTokenAllowance is an ERC-20 style spender allowance.
type PayTokenAllowance struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Owner     evm.Address     `gorm:"column:owner_address;type:varchar(42);not null;uniqueIndex:ux_paytoken_allowances"`
	Spender   evm.Address     `gorm:"column:spender_address;type:varchar(42);not null;uniqueIndex:ux_paytoken_allowances"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(78,0);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// FeeTransfer is the audit record for one collected creation fee.
type FeeTransfer struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Payer        evm.Address     `gorm:"column:payer;type:varchar(42);not null"`
	Collector    evm.Address     `gorm:"column:collector;type:varchar(42);not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(78,0);not null"`
	CollectionID uuid.UUID       `gorm:"column:collection_id;type:uuid;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
