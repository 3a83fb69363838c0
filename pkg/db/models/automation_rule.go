package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

// AutomationRule reacts to a stock alert kind with an action.
type AutomationRule struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string            `gorm:"column:name;not null" json:"name"`
	Trigger         enums.RuleTrigger `gorm:"column:trigger_kind;not null" json:"trigger"`
	Action          enums.RuleAction  `gorm:"column:action;not null" json:"action"`
	Enabled         bool              `gorm:"column:enabled;not null" json:"enabled"`
	LastTriggeredAt *time.Time        `gorm:"column:last_triggered_at" json:"last_triggered_at"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (r *AutomationRule) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
