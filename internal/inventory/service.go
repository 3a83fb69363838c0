package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/pkg/db"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/pagination"
	"github.com/angelmondragon/stockroom/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the product record store plus the manual side of the movement log.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID, actor string) error
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	RecordMovement(ctx context.Context, input RecordMovementInput) (*MovementResult, error)
	ListMovements(ctx context.Context, params ListMovementsParams) (*MovementList, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	SKU          string
	Name         string
	Unit         string
	SupplierID   *uuid.UUID
	Stock        int
	MinimumStock int
	MaximumStock int
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Actor        string
}

// UpdateProductInput holds optional catalog changes. Stock is never updated here;
// use RecordMovement.
type UpdateProductInput struct {
	SKU          *string
	Name         *string
	Unit         *string
	SupplierID   types.NullableUUID
	MinimumStock *int
	MaximumStock *int
	CostPrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	Version      *int
	Actor        string
}

// RecordMovementInput is a manual stock movement: in, out or a signed adjustment.
type RecordMovementInput struct {
	ProductID uuid.UUID
	Type      enums.MovementType
	Quantity  int
	Reason    string
	Reference string
	Actor     string
}

type MovementResult struct {
	Product  *models.Product       `json:"product"`
	Movement *models.StockMovement `json:"movement"`
}

type ListMovementsParams struct {
	ProductID *uuid.UUID
	OrderID   *uuid.UUID
	Type      *enums.MovementType
	Limit     int
	Cursor    string
}

type MovementList = types.Page[models.StockMovement]

type service struct {
	repo   Repository
	tx     txRunner
	ledger Ledger
	audit  audit.Recorder
	now    func() time.Time
}

// NewService wires the inventory dependencies.
func NewService(repo Repository, tx txRunner, ledger Ledger, auditor audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inventory repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock ledger required")
	}
	if auditor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit recorder required")
	}
	return &service{repo: repo, tx: tx, ledger: ledger, audit: auditor, now: time.Now}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	input.SKU = strings.TrimSpace(input.SKU)
	input.Name = strings.TrimSpace(input.Name)
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if err := validateThresholds(input.MinimumStock, input.MaximumStock); err != nil {
		return nil, err
	}
	if err := validatePrices(input.CostPrice, input.SellingPrice); err != nil {
		return nil, err
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "unit"
	}

	product := &models.Product{
		SKU:          input.SKU,
		Name:         input.Name,
		Unit:         unit,
		SupplierID:   input.SupplierID,
		MinimumStock: input.MinimumStock,
		MaximumStock: input.MaximumStock,
		CostPrice:    input.CostPrice,
		SellingPrice: input.SellingPrice,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateProduct(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "sku") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists").WithDetails(map[string]any{"sku": input.SKU})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
		}
		if input.Stock > 0 {
			updated, err := s.ledger.Receive(ctx, tx, product.ID, input.Stock, MovementRef{Reason: "initial stock", Actor: input.Actor})
			if err != nil {
				return err
			}
			*product = *updated
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			Action:     "product.created",
			EntityType: "product",
			EntityID:   product.ID,
			Actor:      input.Actor,
			Details:    map[string]any{"sku": product.SKU, "stock": product.Stock},
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	var product *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := s.ledger.Product(ctx, tx, id)
		if err != nil {
			return err
		}
		if input.Version != nil && *input.Version != current.Version {
			return pkgerrors.New(pkgerrors.CodeConflict, "product version mismatch").
				WithDetails(map[string]any{"expected": *input.Version, "actual": current.Version})
		}
		if err := applyUpdate(current, input); err != nil {
			return err
		}
		current.UpdatedAt = s.now().UTC()

		ok, err := repo.UpdateProductVersioned(ctx, current, current.Version)
		if err != nil {
			if db.IsUniqueViolation(err, "sku") {
				return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "product changed concurrently")
		}
		current.Version++
		product = current

		return s.audit.Record(ctx, tx, audit.Entry{
			Action:     "product.updated",
			EntityType: "product",
			EntityID:   current.ID,
			Actor:      input.Actor,
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func applyUpdate(product *models.Product, input UpdateProductInput) error {
	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "sku required")
		}
		product.SKU = sku
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name required")
		}
		product.Name = name
	}
	if input.Unit != nil && strings.TrimSpace(*input.Unit) != "" {
		product.Unit = strings.TrimSpace(*input.Unit)
	}
	product.SupplierID = input.SupplierID.Apply(product.SupplierID)
	if input.MinimumStock != nil {
		product.MinimumStock = *input.MinimumStock
	}
	if input.MaximumStock != nil {
		product.MaximumStock = *input.MaximumStock
	}
	if input.CostPrice != nil {
		product.CostPrice = *input.CostPrice
	}
	if input.SellingPrice != nil {
		product.SellingPrice = *input.SellingPrice
	}
	if err := validateThresholds(product.MinimumStock, product.MaximumStock); err != nil {
		return err
	}
	return validatePrices(product.CostPrice, product.SellingPrice)
}

func validateThresholds(minimum, maximum int) error {
	if minimum < 0 || maximum < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock thresholds cannot be negative")
	}
	if maximum > 0 && maximum < minimum {
		return pkgerrors.New(pkgerrors.CodeValidation, "maximum stock must be at least minimum stock")
	}
	return nil
}

func validatePrices(cost, selling decimal.Decimal) error {
	if cost.IsNegative() || selling.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	return nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID, actor string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.ledger.Product(ctx, tx, id)
		if err != nil {
			return err
		}
		if product.ReservedStock > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product has reserved stock").
				WithDetails(map[string]any{"reserved_stock": product.ReservedStock})
		}
		lines, err := repo.CountOrderLines(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order lines")
		}
		if lines > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is referenced by orders")
		}
		if err := repo.DeleteProduct(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
		}
		return s.audit.Record(ctx, tx, audit.Entry{
			Action:     "product.deleted",
			EntityType: "product",
			EntityID:   id,
			Actor:      actor,
			Details:    map[string]any{"sku": product.SKU},
		})
	})
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

// RecordMovement applies a manual movement. Outgoing stock may never dip below
// what is already reserved for orders.
func (s *service) RecordMovement(ctx context.Context, input RecordMovementInput) (*MovementResult, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Type.IsManual() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement type must be in, out or adjustment")
	}

	change := StockChange{
		ProductID: input.ProductID,
		Type:      input.Type,
		Quantity:  input.Quantity,
		Ref:       MovementRef{Reason: input.Reason, Reference: input.Reference, Actor: input.Actor},
	}
	switch input.Type {
	case enums.MovementTypeIn:
		if input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		change.StockDelta = input.Quantity
	case enums.MovementTypeOut:
		if input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		change.StockDelta = -input.Quantity
	case enums.MovementTypeAdjustment:
		if input.Quantity == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment must not be zero")
		}
		change.StockDelta = input.Quantity
	}

	var result MovementResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, movement, err := s.ledger.Apply(ctx, tx, change)
		if err != nil {
			return err
		}
		result.Product = product
		result.Movement = movement

		return s.audit.Record(ctx, tx, audit.Entry{
			Action:     "stock.movement",
			EntityType: "product",
			EntityID:   product.ID,
			Actor:      input.Actor,
			Details:    map[string]any{"type": input.Type, "quantity": input.Quantity, "reason": input.Reason},
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) ListMovements(ctx context.Context, params ListMovementsParams) (*MovementList, error) {
	query := listMovementsParams{
		ProductID: params.ProductID,
		OrderID:   params.OrderID,
		Type:      params.Type,
		Limit:     params.Limit,
	}
	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	query.Cursor = cursor
	rows, next, err := s.repo.ListMovements(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return pagination.NewPage(rows, next), nil
}
