package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mintforge/collections-backend/pkg/evm"
)

// Token is one minted token in the ownership registry. TokenID is the packed
// 256-bit ID in canonical 66-char hex form; ItemOrdinal and IssuedID are the
// unpacked halves kept for query convenience.
type Token struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID uuid.UUID   `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:ux_tokens_collection_token"`
	TokenID      string      `gorm:"column:token_id;type:varchar(66);not null;uniqueIndex:ux_tokens_collection_token"`
	ItemOrdinal  int64       `gorm:"column:item_ordinal;not null"`
	IssuedID     int64       `gorm:"column:issued_id;not null"`
	OwnerAddress evm.Address `gorm:"column:owner_address;type:varchar(42);not null;index"`
	Approved     evm.Address `gorm:"column:approved;type:varchar(42);not null"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// OperatorApproval is a blanket approval from an owner to an operator within
// one collection, ERC-721 setApprovalForAll semantics.
type OperatorApproval struct {
	ID           uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	CollectionID uuid.UUID   `gorm:"column:collection_id;type:uuid;not null;uniqueIndex:ux_operator_approvals"`
	Owner        evm.Address `gorm:"column:owner_address;type:varchar(42);not null;uniqueIndex:ux_operator_approvals"`
	Operator     evm.Address `gorm:"column:operator_address;type:varchar(42);not null;uniqueIndex:ux_operator_approvals"`
	Approved     bool        `gorm:"column:approved;not null;default:false"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
