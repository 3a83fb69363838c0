package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	"github.com/angelmondragon/stockroom/pkg/pagination"
)

// Repository persists suppliers and purchase orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error
	FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, params listParams) ([]models.PurchaseOrder, *pagination.Cursor, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.PurchaseOrderStatus, to enums.PurchaseOrderStatus, updates map[string]any) (bool, error)
	FindDraftForSupplier(ctx context.Context, supplierID uuid.UUID) (*models.PurchaseOrder, error)
	AddLine(ctx context.Context, line *models.PurchaseOrderLine) error
	HasOpenLineForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
}

type listParams struct {
	Status     *enums.PurchaseOrderStatus
	SupplierID *uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
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

func (r *repositoryImpl) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *repositoryImpl) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repositoryImpl) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *repositoryImpl) CreatePurchaseOrder(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *repositoryImpl) FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("product_id ASC, id ASC") }).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repositoryImpl) ListPurchaseOrders(ctx context.Context, params listParams) ([]models.PurchaseOrder, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).Preload("Lines")
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.SupplierID != nil {
		query = query.Where("supplier_id = ?", *params.SupplierID)
	}

	var rows []models.PurchaseOrder
	if err := pagination.Seek(query, params.Cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(row models.PurchaseOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}

// TransitionStatus moves a purchase order to `to` only while it is in one of `from`.
func (r *repositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from []enums.PurchaseOrderStatus, to enums.PurchaseOrderStatus, updates map[string]any) (bool, error) {
	values := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	return res.RowsAffected > 0, res.Error
}

func (r *repositoryImpl) FindDraftForSupplier(ctx context.Context, supplierID uuid.UUID) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("supplier_id = ? AND status = ?", supplierID, enums.PurchaseOrderStatusDraft).
		Order("created_at ASC, id ASC").
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repositoryImpl) AddLine(ctx context.Context, line *models.PurchaseOrderLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// HasOpenLineForProduct reports whether a draft or sent purchase order already covers the product.
func (r *repositoryImpl) HasOpenLineForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PurchaseOrderLine{}).
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_lines.purchase_order_id").
		Where("purchase_order_lines.product_id = ?", productID).
		Where("purchase_orders.status IN ?", []enums.PurchaseOrderStatus{enums.PurchaseOrderStatusDraft, enums.PurchaseOrderStatusSent}).
		Count(&count).Error
	return count > 0, err
}
