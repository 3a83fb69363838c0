package customers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroom/pkg/db/models"
)

// Repository persists customers and their negotiated prices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, search string) ([]models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	UpsertPrice(ctx context.Context, price *models.CustomerPrice) error
	FindPrice(ctx context.Context, customerID, productID uuid.UUID) (*models.CustomerPrice, error)
	ListPrices(ctx context.Context, customerID uuid.UUID) ([]models.CustomerPrice, error)
	DeletePrice(ctx context.Context, customerID, productID uuid.UUID) (bool, error)
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

func (r *repositoryImpl) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repositoryImpl) List(ctx context.Context, search string) ([]models.Customer, error) {
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like)
	}
	var customers []models.Customer
	if err := query.Order("name ASC, id ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repositoryImpl) Update(ctx context.Context, customer *models.Customer) error {
	res := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", customer.ID).
		Updates(map[string]any{"name": customer.Name, "email": customer.Email})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpsertPrice inserts or replaces the price for (customer, product).
func (r *repositoryImpl) UpsertPrice(ctx context.Context, price *models.CustomerPrice) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(price).Error
}

func (r *repositoryImpl) FindPrice(ctx context.Context, customerID, productID uuid.UUID) (*models.CustomerPrice, error) {
	var price models.CustomerPrice
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		First(&price).Error
	if err != nil {
		return nil, err
	}
	return &price, nil
}

func (r *repositoryImpl) ListPrices(ctx context.Context, customerID uuid.UUID) ([]models.CustomerPrice, error) {
	var prices []models.CustomerPrice
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("updated_at DESC, id ASC").
		Find(&prices).Error
	return prices, err
}

func (r *repositoryImpl) DeletePrice(ctx context.Context, customerID, productID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.CustomerPrice{})
	return res.RowsAffected > 0, res.Error
}
