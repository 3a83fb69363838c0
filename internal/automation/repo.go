package automation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
)

// Repository persists automation rules and reads the products the scan inspects.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRule(ctx context.Context, rule *models.AutomationRule) error
	FindRule(ctx context.Context, id uuid.UUID) (*models.AutomationRule, error)
	ListRules(ctx context.Context, enabledOnly bool) ([]models.AutomationRule, error)
	UpdateRule(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteRule(ctx context.Context, id uuid.UUID) error
	TouchRule(ctx context.Context, id uuid.UUID, now time.Time) error
	Products(ctx context.Context) ([]models.Product, error)
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

func (r *repositoryImpl) CreateRule(ctx context.Context, rule *models.AutomationRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repositoryImpl) FindRule(ctx context.Context, id uuid.UUID) (*models.AutomationRule, error) {
	var rule models.AutomationRule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repositoryImpl) ListRules(ctx context.Context, enabledOnly bool) ([]models.AutomationRule, error) {
	query := r.db.WithContext(ctx).Model(&models.AutomationRule{})
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	var rules []models.AutomationRule
	err := query.Order("created_at ASC, id ASC").Find(&rules).Error
	return rules, err
}

func (r *repositoryImpl) UpdateRule(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.AutomationRule{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) DeleteRule(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AutomationRule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) TouchRule(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.AutomationRule{}).
		Where("id = ?", id).
		UpdateColumn("last_triggered_at", now).Error
}

func (r *repositoryImpl) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("sku ASC").Find(&products).Error
	return products, err
}
