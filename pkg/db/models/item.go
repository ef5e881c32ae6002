package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mintforge/collections-backend/pkg/enums"
	"github.com/mintforge/collections-backend/pkg/evm"
)

// Item is one catalogue entry. Ordinal is the dense zero-based item ID used
// in token IDs; rows are never removed, so ordinals stay stable forever.
// Price is a wei amount stored as numeric(78,0); zero means not for sale and
// forces a zero beneficiary.
type Item struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID uuid.UUID       `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:ux_items_collection_ordinal"`
	Ordinal      int64           `gorm:"column:ordinal;not null;uniqueIndex:ux_items_collection_ordinal"`
	Rarity       enums.Rarity    `gorm:"column:rarity;type:rarity_enum;not null"`
	TotalSupply  int64           `gorm:"column:total_supply;not null;default:0"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(78,0);not null;default:0"`
	Beneficiary  evm.Address     `gorm:"column:beneficiary;type:varchar(42);not null"`
	Metadata     string          `gorm:"column:metadata;not null"`
	ContentHash  string          `gorm:"column:content_hash;not null;default:''"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
