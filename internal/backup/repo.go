package backup

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroom/pkg/db/models"
)

const insertBatchSize = 200

// Repository reads and overwrites the full dataset.
type Repository interface {
	Load(ctx context.Context) (*Dataset, error)
	Products(ctx context.Context) ([]models.Product, error)
	Replace(ctx context.Context, tx *gorm.DB, data *Dataset) error
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("sku ASC").Find(&products).Error
	return products, err
}

func (r *repositoryImpl) Load(ctx context.Context) (*Dataset, error) {
	db := r.db.WithContext(ctx)
	data := &Dataset{}
	byCreation := "created_at ASC, id ASC"
	steps := []func() error{
		func() error { return db.Order(byCreation).Find(&data.Products).Error },
		func() error { return db.Order(byCreation).Find(&data.Customers).Error },
		func() error { return db.Order(byCreation).Find(&data.Suppliers).Error },
		func() error {
			return db.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
				Order(byCreation).Find(&data.Orders).Error
		},
		func() error { return db.Order("customer_id ASC, product_id ASC").Find(&data.CustomerPrices).Error },
		func() error { return db.Order(byCreation).Find(&data.StockMovements).Error },
		func() error { return db.Order(byCreation).Find(&data.Backorders).Error },
		func() error {
			return db.Preload("Lines", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
				Order(byCreation).Find(&data.PurchaseOrders).Error
		},
		func() error { return db.Order(byCreation).Find(&data.AutomationRules).Error },
		func() error { return db.Order(byCreation).Find(&data.Notifications).Error },
		func() error { return db.Order(byCreation).Find(&data.AuditEntries).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Replace wipes every table and inserts data. Children are deleted before their
// parents and inserted after them.
func (r *repositoryImpl) Replace(ctx context.Context, tx *gorm.DB, data *Dataset) error {
	db := tx.WithContext(ctx)
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return err
		}
	}

	var items []models.OrderItem
	for _, o := range data.Orders {
		items = append(items, o.Items...)
	}
	var lines []models.PurchaseOrderLine
	for _, po := range data.PurchaseOrders {
		lines = append(lines, po.Lines...)
	}

	insert := func(rows any, n int) error {
		if n == 0 {
			return nil
		}
		return db.Omit(clause.Associations).CreateInBatches(rows, insertBatchSize).Error
	}
	steps := []func() error{
		func() error { return insert(&data.Suppliers, len(data.Suppliers)) },
		func() error { return insert(&data.Customers, len(data.Customers)) },
		func() error { return insert(&data.Products, len(data.Products)) },
		func() error { return insert(&data.CustomerPrices, len(data.CustomerPrices)) },
		func() error { return insert(&data.Orders, len(data.Orders)) },
		func() error { return insert(&items, len(items)) },
		func() error { return insert(&data.StockMovements, len(data.StockMovements)) },
		func() error { return insert(&data.Backorders, len(data.Backorders)) },
		func() error { return insert(&data.PurchaseOrders, len(data.PurchaseOrders)) },
		func() error { return insert(&lines, len(lines)) },
		func() error { return insert(&data.AutomationRules, len(data.AutomationRules)) },
		func() error { return insert(&data.Notifications, len(data.Notifications)) },
		func() error { return insert(&data.AuditEntries, len(data.AuditEntries)) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
