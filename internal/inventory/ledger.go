package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/metrics"
)

// MovementRef carries the descriptive fields copied onto every movement row.
type MovementRef struct {
	Reason     string
	Reference  string
	OrderID    *uuid.UUID
	CustomerID *uuid.UUID
	Actor      string
}

// StockChange is one ledger write: deltas applied to a product plus the movement
// that records it.
type StockChange struct {
	ProductID     uuid.UUID
	StockDelta    int
	ReservedDelta int
	Type          enums.MovementType
	Quantity      int
	Ref           MovementRef
}

// Ledger applies stock changes to products inside the caller's transaction.
// Every call appends exactly one movement and bumps the product version.
type Ledger interface {
	Product(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	Apply(ctx context.Context, tx *gorm.DB, change StockChange) (*models.Product, *models.StockMovement, error)
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*models.Product, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*models.Product, error)
	Ship(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*models.Product, error)
	Receive(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*models.Product, error)
}

type ledger struct {
	repo    Repository
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewLedger builds the stock ledger on top of the inventory repository.
func NewLedger(repo Repository, m *metrics.LedgerMetrics) (Ledger, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	return &ledger{repo: repo, metrics: m, now: time.Now}, nil
}

func (l *ledger) Product(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	product, err := l.repo.WithTx(tx).FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"product_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (l *ledger) Apply(ctx context.Context, tx *gorm.DB, change StockChange) (*models.Product, *models.StockMovement, error) {
	if tx == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock change")
	}
	if !change.Type.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}
	if change.Quantity == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "movement quantity must not be zero")
	}

	product, err := l.Product(ctx, tx, change.ProductID)
	if err != nil {
		return nil, nil, err
	}

	stock := product.Stock + change.StockDelta
	reserved := product.ReservedStock + change.ReservedDelta
	if reserved < 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reserved stock cannot go negative").
			WithDetails(map[string]any{"product_id": product.ID, "reserved_stock": product.ReservedStock})
	}
	if stock < reserved {
		return nil, nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient stock").
			WithDetails(map[string]any{
				"product_id":      product.ID,
				"stock":           product.Stock,
				"reserved_stock":  product.ReservedStock,
				"available_stock": product.Stock - product.ReservedStock,
			})
	}

	now := l.now().UTC()
	repo := l.repo.WithTx(tx)
	ok, err := repo.UpdateStockVersioned(ctx, product.ID, product.Version, stock, reserved, now)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product stock")
	}
	if !ok {
		l.metrics.IncConflict()
		return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, "product changed concurrently").
			WithDetails(map[string]any{"product_id": product.ID, "version": product.Version})
	}

	movement := &models.StockMovement{
		ProductID:  product.ID,
		Type:       change.Type,
		Quantity:   change.Quantity,
		Reason:     change.Ref.Reason,
		Reference:  change.Ref.Reference,
		OrderID:    change.Ref.OrderID,
		CustomerID: change.Ref.CustomerID,
		CreatedAt:  now,
		CreatedBy:  change.Ref.Actor,
	}
	if err := repo.CreateMovement(ctx, movement); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock movement")
	}
	l.metrics.ObserveMovement(string(change.Type), change.Quantity)

	product.Stock = stock
	product.ReservedStock = reserved
	product.AvailableStock = stock - reserved
	product.Version++
	product.UpdatedAt = now
	return product, movement, nil
}

func (l *ledger) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*models.Product, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserve quantity must be positive")
	}
	return l.applyProduct(ctx, tx, StockChange{ProductID: productID, ReservedDelta: qty, Type: enums.MovementTypeReserved, Quantity: qty, Ref: ref})
}

func (l *ledger) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*models.Product, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "release quantity must be positive")
	}
	return l.applyProduct(ctx, tx, StockChange{ProductID: productID, ReservedDelta: -qty, Type: enums.MovementTypeReleased, Quantity: qty, Ref: ref})
}

// Ship removes reserved units from the shelf: stock and reservation drop together.
func (l *ledger) Ship(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*models.Product, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ship quantity must be positive")
	}
	return l.applyProduct(ctx, tx, StockChange{ProductID: productID, StockDelta: -qty, ReservedDelta: -qty, Type: enums.MovementTypeOut, Quantity: qty, Ref: ref})
}

func (l *ledger) Receive(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, ref MovementRef) (*models.Product, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receive quantity must be positive")
	}
	return l.applyProduct(ctx, tx, StockChange{ProductID: productID, StockDelta: qty, Type: enums.MovementTypeIn, Quantity: qty, Ref: ref})
}

func (l *ledger) applyProduct(ctx context.Context, tx *gorm.DB, change StockChange) (*models.Product, error) {
	product, _, err := l.Apply(ctx, tx, change)
	return product, err
}
