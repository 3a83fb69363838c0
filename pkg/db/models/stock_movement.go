package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

// StockMovement is an immutable audit row; it is never replayed to rebuild stock.
type StockMovement struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID  uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Type       enums.MovementType `gorm:"column:type;not null" json:"type"`
	Quantity   int                `gorm:"column:quantity;not null" json:"quantity"`
	Reason     string             `gorm:"column:reason;not null;default:''" json:"reason"`
	Reference  string             `gorm:"column:reference;not null;default:''" json:"reference"`
	OrderID    *uuid.UUID         `gorm:"column:order_id;type:uuid;index" json:"order_id"`
	CustomerID *uuid.UUID         `gorm:"column:customer_id;type:uuid" json:"customer_id"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	CreatedBy  string             `gorm:"column:created_by;not null;default:''" json:"created_by"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
