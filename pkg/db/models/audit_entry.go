package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEntry records who changed what; written in the same transaction as the change.
type AuditEntry struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Action     string          `gorm:"column:action;not null;index" json:"action"`
	EntityType string          `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityID   uuid.UUID       `gorm:"column:entity_id;type:uuid;not null;index" json:"entity_id"`
	Actor      string          `gorm:"column:actor;not null;default:''" json:"actor"`
	Details    json.RawMessage `gorm:"column:details;type:jsonb" json:"details"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (a *AuditEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
