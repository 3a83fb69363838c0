package backorders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	"github.com/angelmondragon/stockroom/pkg/pagination"
)

var openStatuses = []enums.BackorderStatus{enums.BackorderStatusPending, enums.BackorderStatusOrdered}

// Repository persists backorder rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.BackorderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BackorderItem, error)
	FindOpen(ctx context.Context, orderID, productID uuid.UUID) (*models.BackorderItem, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	TransitionOpen(ctx context.Context, orderID uuid.UUID, productID *uuid.UUID, to enums.BackorderStatus, now time.Time) (int64, error)
	List(ctx context.Context, params listParams) ([]models.BackorderItem, *pagination.Cursor, error)
	PendingQuantities(ctx context.Context) (map[uuid.UUID]int, error)
}

type listParams struct {
	Status    *enums.BackorderStatus
	ProductID *uuid.UUID
	OrderID   *uuid.UUID
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

func (r *repositoryImpl) Create(ctx context.Context, item *models.BackorderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.BackorderItem, error) {
	var item models.BackorderItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindOpen returns the pending or ordered backorder for an order line's product.
func (r *repositoryImpl) FindOpen(ctx context.Context, orderID, productID uuid.UUID) (*models.BackorderItem, error) {
	var item models.BackorderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ? AND status IN ?", orderID, productID, openStatuses).
		Order("created_at ASC, id ASC").
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.BackorderItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TransitionOpen moves every open backorder of an order (optionally one product)
// to the target status.
func (r *repositoryImpl) TransitionOpen(ctx context.Context, orderID uuid.UUID, productID *uuid.UUID, to enums.BackorderStatus, now time.Time) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.BackorderItem{}).
		Where("order_id = ? AND status IN ?", orderID, openStatuses)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	res := query.Updates(map[string]any{"status": to, "updated_at": now})
	return res.RowsAffected, res.Error
}

func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.BackorderItem, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.BackorderItem{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.ProductID != nil {
		query = query.Where("product_id = ?", *params.ProductID)
	}
	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}

	var rows []models.BackorderItem
	if err := pagination.Seek(query, params.Cursor, params.Limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Trim(rows, params.Limit, func(row models.BackorderItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	return page, next, nil
}

// PendingQuantities sums pending quantities per product.
func (r *repositoryImpl) PendingQuantities(ctx context.Context) (map[uuid.UUID]int, error) {
	var rows []struct {
		ProductID uuid.UUID
		Total     int
	}
	err := r.db.WithContext(ctx).
		Model(&models.BackorderItem{}).
		Select("product_id, SUM(quantity) AS total").
		Where("status = ?", enums.BackorderStatusPending).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Total
	}
	return out, nil
}
