package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

// BackorderItem records the unfulfilled remainder of an order line. At most one
// pending row exists per (order, product).
type BackorderItem struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CustomerID   uuid.UUID               `gorm:"column:customer_id;type:uuid;not null" json:"customer_id"`
	OrderID      uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	OrderItemID  uuid.UUID               `gorm:"column:order_item_id;type:uuid;not null" json:"order_item_id"`
	ProductID    uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Quantity     int                     `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice    decimal.Decimal         `gorm:"column:unit_price;type:numeric(14,4);not null;default:0" json:"unit_price"`
	Unit         string                  `gorm:"column:unit;not null;default:'unit'" json:"unit"`
	Priority     enums.BackorderPriority `gorm:"column:priority;not null;default:'normal'" json:"priority"`
	Status       enums.BackorderStatus   `gorm:"column:status;not null;default:'pending'" json:"status"`
	ExpectedDate *time.Time              `gorm:"column:expected_date" json:"expected_date"`
	Notes        string                  `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (b *BackorderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}
