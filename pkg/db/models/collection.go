package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mintforge/collections-backend/pkg/evm"
)

// Collection is the aggregate root for one deployed collection proxy. The
// lifecycle flags mirror the issuance state machine; ItemCount is the dense
// ordinal counter for the catalogue and never decreases.
type Collection struct {
	ID              uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	Address         evm.Address `gorm:"column:address;type:varchar(42);not null;uniqueIndex"`
	ProofOfCreation evm.Hash    `gorm:"column:proof_of_creation;type:varchar(66);not null"`
	Name            string      `gorm:"column:name;not null"`
	Symbol          string      `gorm:"column:symbol;not null"`
	BaseURI         string      `gorm:"column:base_uri;not null;default:''"`
	OwnerAddress    evm.Address `gorm:"column:owner_address;type:varchar(42);not null"`
	CreatorAddress  evm.Address `gorm:"column:creator_address;type:varchar(42);not null"`
	Initialized     bool        `gorm:"column:initialized;not null;default:false"`
	Approved        bool        `gorm:"column:approved;not null;default:false"`
	Completed       bool        `gorm:"column:completed;not null;default:false"`
	Editable        bool        `gorm:"column:editable;not null;default:false"`
	CompletedAt     *time.Time  `gorm:"column:completed_at"`
	ItemCount       int64       `gorm:"column:item_count;not null;default:0"`
	CreatedAt       time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
