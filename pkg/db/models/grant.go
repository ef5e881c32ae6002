package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintforge/collections-backend/pkg/evm"
)

// MinterGrant marks an address as a collection-wide minter. Row presence is
// the grant; revocation deletes the row.
type MinterGrant struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID uuid.UUID   `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:ux_minter_grants"`
	Address      evm.Address `gorm:"column:address;type:varchar(42);not null;uniqueIndex:ux_minter_grants"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
}

// ManagerGrant marks an address as a collection-wide manager.
type ManagerGrant struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID uuid.UUID   `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:ux_manager_grants"`
	Address      evm.Address `gorm:"column:address;type:varchar(42);not null;uniqueIndex:ux_manager_grants"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
}

// ItemMinterAllowance caps how many tokens of one item an address may mint.
// Unlimited grants never decrement; finite grants carry the remaining count
// in Remaining. A row with Unlimited=false and Remaining=0 is spent.
type ItemMinterAllowance struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID uuid.UUID       `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:ux_item_minter_allowances"`
	ItemOrdinal  int64           `gorm:"column:item_ordinal;not null;uniqueIndex:ux_item_minter_allowances"`
	Address      evm.Address     `gorm:"column:address;type:varchar(42);not null;uniqueIndex:ux_item_minter_allowances"`
	Unlimited    bool            `gorm:"column:unlimited;not null;default:false"`
	Remaining    decimal.Decimal `gorm:"column:remaining;type:numeric(78,0);not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ItemManagerGrant marks an address as manager for one item.
type ItemManagerGrant struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID uuid.UUID   `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:ux_item_manager_grants"`
	ItemOrdinal  int64       `gorm:"column:item_ordinal;not null;uniqueIndex:ux_item_manager_grants"`
	Address      evm.Address `gorm:"column:address;type:varchar(42);not null;uniqueIndex:ux_item_manager_grants"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
}
