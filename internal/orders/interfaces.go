package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/backorders"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/pagination"
)

// Repository defines persistence operations for orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextNumber(ctx context.Context) (int, error)
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params listParams) ([]models.Order, *pagination.Cursor, error)
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	UpdateOrderVersioned(ctx context.Context, orderID uuid.UUID, expectedVersion int, updates map[string]any, now time.Time) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type customerLookup interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// Pricer resolves the unit price snapshotted onto a new order line.
type Pricer interface {
	PriceFor(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, product *models.Product) (decimal.Decimal, error)
}

// BackorderGenerator is the slice of the backorder service the preparation engine drives.
type BackorderGenerator interface {
	Upsert(ctx context.Context, tx *gorm.DB, shortfall backorders.Shortfall) (*models.BackorderItem, error)
	Resolve(ctx context.Context, tx *gorm.DB, orderID, productID uuid.UUID) error
	CancelForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error)
}
