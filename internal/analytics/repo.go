package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
)

// SaleLine is one order line of a non-cancelled order.
type SaleLine struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	CreatedAt  time.Time
}

// Repository reads the inputs of the reports.
type Repository interface {
	SaleLines(ctx context.Context, since *time.Time) ([]SaleLine, error)
	Products(ctx context.Context) ([]models.Product, error)
	Customers(ctx context.Context) ([]models.Customer, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaleLines(ctx context.Context, since *time.Time) ([]SaleLine, error) {
	query := r.db.WithContext(ctx).
		Table("order_items").
		Select("orders.id AS order_id, orders.customer_id, order_items.product_id, order_items.quantity, order_items.unit_price, orders.created_at").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", enums.OrderStatusCancelled)
	if since != nil {
		query = query.Where("orders.created_at >= ?", *since)
	}
	var rows []SaleLine
	if err := query.Order("orders.created_at ASC, order_items.position ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("sku ASC").Find(&products).Error
	return products, err
}

func (r *repository) Customers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&customers).Error
	return customers, err
}
