package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mintforge/collections-backend/pkg/evm"
)

// Deployment records one CREATE2 deployment performed by the factory. The
// unique index on SaltHash is what makes salt+deployer reuse fail.
type Deployment struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	Salt           evm.Hash    `gorm:"column:salt;type:varchar(66);not null"`
	Deployer       evm.Address `gorm:"column:deployer;type:varchar(42);not null"`
	SaltHash       evm.Hash    `gorm:"column:salt_hash;type:varchar(66);not null;uniqueIndex"`
	Address        evm.Address `gorm:"column:address;type:varchar(42);not null;uniqueIndex"`
	Implementation evm.Address `gorm:"column:implementation;type:varchar(42);not null"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
}
