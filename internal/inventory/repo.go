package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	"github.com/angelmondragon/stockroom/pkg/pagination"
)

// Repository exposes product and stock movement persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProduct(ctx context.Context, product *models.Product) error
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	UpdateProductVersioned(ctx context.Context, product *models.Product, expectedVersion int) (bool, error)
	UpdateStockVersioned(ctx context.Context, id uuid.UUID, expectedVersion, stock, reserved int, now time.Time) (bool, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	CountOrderLines(ctx context.Context, productID uuid.UUID) (int64, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, params listMovementsParams) ([]models.StockMovement, *pagination.Cursor, error)
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	LowStock   bool
	SupplierID *uuid.UUID
	Search     string
}

type listMovementsParams struct {
	ProductID *uuid.UUID
	OrderID   *uuid.UUID
	Type      *enums.MovementType
	Limit     int
	Cursor    *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repositoryImpl) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repositoryImpl) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if filter.LowStock {
		query = query.Where("stock <= minimum_stock")
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(sku) LIKE LOWER(?)", like, like)
	}
	var products []models.Product
	if err := query.Order("name ASC, id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProductVersioned writes the catalog fields (never stock) when the stored
// version still matches.
func (r *repositoryImpl) UpdateProductVersioned(ctx context.Context, product *models.Product, expectedVersion int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND version = ?", product.ID, expectedVersion).
		Updates(map[string]any{
			"sku":           product.SKU,
			"name":          product.Name,
			"unit":          product.Unit,
			"supplier_id":   product.SupplierID,
			"minimum_stock": product.MinimumStock,
			"maximum_stock": product.MaximumStock,
			"cost_price":    product.CostPrice,
			"selling_price": product.SellingPrice,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    product.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateStockVersioned sets stock and reservation totals and recomputes the
// persisted available stock.
func (r *repositoryImpl) UpdateStockVersioned(ctx context.Context, id uuid.UUID, expectedVersion, stock, reserved int, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = ?,
			reserved_stock = ?,
			available_stock = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?
	`, stock, reserved, stock-reserved, now, id, expectedVersion)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repositoryImpl) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&models.StockMovement{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) CountOrderLines(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *repositoryImpl) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repositoryImpl) ListMovements(ctx context.Context, params listMovementsParams) ([]models.StockMovement, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}
	if params.Type != nil {
		query = query.Where("type = ?", *params.Type)
	}

	var rows []models.StockMovement
	if err := pagination.Seek(query, params.Cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(row models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}
