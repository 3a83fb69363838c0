package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/enums"
)

type Supplier struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Email        string    `gorm:"column:email;not null;default:''" json:"email"`
	LeadTimeDays int       `gorm:"column:lead_time_days;not null;default:0" json:"lead_time_days"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

type PurchaseOrder struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SupplierID   uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null;index" json:"supplier_id"`
	Status       enums.PurchaseOrderStatus `gorm:"column:status;not null;default:'draft'" json:"status"`
	ExpectedDate *time.Time                `gorm:"column:expected_date" json:"expected_date"`
	ReceivedAt   *time.Time                `gorm:"column:received_at" json:"received_at"`
	Notes        string                    `gorm:"column:notes;not null;default:''" json:"notes"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Lines        []PurchaseOrderLine       `gorm:"foreignKey:PurchaseOrderID" json:"lines"`
}

func (p *PurchaseOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

type PurchaseOrderLine struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PurchaseOrderID uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index" json:"purchase_order_id"`
	ProductID       uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"column:unit_cost;type:numeric(14,4);not null;default:0" json:"unit_cost"`
}

func (l *PurchaseOrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
