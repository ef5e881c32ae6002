package models

import (
	"github.com/google/uuid"

	"gorm.io/gorm"
)

// Models generate their own primary keys so inserts behave the same on
// Postgres and the sqlite test harness.

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *Collection) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *Item) BeforeCreate(*gorm.DB) error                { assignID(&m.ID); return nil }
func (m *Token) BeforeCreate(*gorm.DB) error               { assignID(&m.ID); return nil }
func (m *OperatorApproval) BeforeCreate(*gorm.DB) error    { assignID(&m.ID); return nil }
func (m *MinterGrant) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *ManagerGrant) BeforeCreate(*gorm.DB) error        { assignID(&m.ID); return nil }
func (m *ItemMinterAllowance) BeforeCreate(*gorm.DB) error { assignID(&m.ID); return nil }
func (m *ItemManagerGrant) BeforeCreate(*gorm.DB) error    { assignID(&m.ID); return nil }
func (m *Deployment) BeforeCreate(*gorm.DB) error          { assignID(&m.ID); return nil }
func (m *CommitteeMember) BeforeCreate(*gorm.DB) error     { assignID(&m.ID); return nil }
func (m *PayTokenAccount) BeforeCreate(*gorm.DB) error     { assignID(&m.ID); return nil }
func (m *PayTokenAllowance) BeforeCreate(*gorm.DB) error   { assignID(&m.ID); return nil }
func (m *FeeTransfer) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *OutboxEvent) BeforeCreate(*gorm.DB) error         { assignID(&m.ID); return nil }
func (m *OutboxDLQ) BeforeCreate(*gorm.DB) error           { assignID(&m.ID); return nil }
