package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

// Order aggregates order lines; PreparationProgress is the percentage of lines
// whose preparation status is complete.
type Order struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Number              int               `gorm:"column:number;not null;uniqueIndex" json:"number"`
	CustomerID          uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	Status              enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	PreparationProgress float64           `gorm:"column:preparation_progress;not null;default:0" json:"preparation_progress"`
	Notes               string            `gorm:"column:notes;not null;default:''" json:"notes"`
	Version             int               `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Items               []OrderItem       `gorm:"foreignKey:OrderID" json:"items"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.Version == 0 {
		o.Version = 1
	}
	return nil
}

// Total sums quantity * unit price across lines.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// OrderItem is one order line and its preparation ledger fields.
type OrderItem struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID           uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Position          int                     `gorm:"column:position;not null" json:"position"`
	ProductID         uuid.UUID               `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Quantity          int                     `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice         decimal.Decimal         `gorm:"column:unit_price;type:numeric(14,4);not null;default:0" json:"unit_price"`
	PreparedQuantity  int                     `gorm:"column:prepared_quantity;not null;default:0" json:"prepared_quantity"`
	BackorderQuantity int                     `gorm:"column:backorder_quantity;not null;default:0" json:"backorder_quantity"`
	ShippedQuantity   int                     `gorm:"column:shipped_quantity;not null;default:0" json:"shipped_quantity"`
	AvailableStock    int                     `gorm:"column:available_stock;not null;default:0" json:"available_stock"`
	PreparationStatus enums.PreparationStatus `gorm:"column:preparation_status;not null;default:'pending'" json:"preparation_status"`
	PreparedBy        string                  `gorm:"column:prepared_by;not null;default:''" json:"prepared_by"`
	PreparedAt        *time.Time              `gorm:"column:prepared_at" json:"prepared_at"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OutstandingReservation is the prepared quantity that has not shipped yet.
func (i OrderItem) OutstandingReservation() int {
	return i.PreparedQuantity - i.ShippedQuantity
}
