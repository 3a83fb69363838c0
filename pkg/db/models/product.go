package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the stock record for a sellable item. AvailableStock is persisted
// redundantly and always equals Stock - ReservedStock after a ledger write.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SKU            string          `gorm:"column:sku;not null;uniqueIndex" json:"sku"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	Unit           string          `gorm:"column:unit;not null;default:'unit'" json:"unit"`
	SupplierID     *uuid.UUID      `gorm:"column:supplier_id;type:uuid" json:"supplier_id"`
	Stock          int             `gorm:"column:stock;not null;default:0" json:"stock"`
	ReservedStock  int             `gorm:"column:reserved_stock;not null;default:0" json:"reserved_stock"`
	AvailableStock int             `gorm:"column:available_stock;not null;default:0" json:"available_stock"`
	MinimumStock   int             `gorm:"column:minimum_stock;not null;default:0" json:"minimum_stock"`
	MaximumStock   int             `gorm:"column:maximum_stock;not null;default:0" json:"maximum_stock"`
	CostPrice      decimal.Decimal `gorm:"column:cost_price;type:numeric(14,4);not null;default:0" json:"cost_price"`
	SellingPrice   decimal.Decimal `gorm:"column:selling_price;type:numeric(14,4);not null;default:0" json:"selling_price"`
	Version        int             `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Version == 0 {
		p.Version = 1
	}
	p.AvailableStock = p.Stock - p.ReservedStock
	return nil
}
