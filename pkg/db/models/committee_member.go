package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mintforge/collections-backend/pkg/evm"
)

// CommitteeMember is one address allowed to toggle collection approval
// through the manager's forwarder. Row presence is membership.
type CommitteeMember struct {
	ID        uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	Address   evm.Address `gorm:"column:address;type:varchar(42);not null;uniqueIndex"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
}
