package customers

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

// Pricer resolves the unit price a customer pays for a product.
type Pricer interface {
	PriceFor(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, product *models.Product) (decimal.Decimal, error)
}

// Service manages customers and customer-specific prices.
type Service interface {
	Pricer
	CreateCustomer(ctx context.Context, input CustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*models.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ListCustomers(ctx context.Context, search string) ([]models.Customer, error)
	SetPrice(ctx context.Context, customerID, productID uuid.UUID, price decimal.Decimal) (*models.CustomerPrice, error)
	ListPrices(ctx context.Context, customerID uuid.UUID) ([]models.CustomerPrice, error)
	DeletePrice(ctx context.Context, customerID, productID uuid.UUID) error
}

type CustomerInput struct {
	Name  string
	Email string
}

type productLookup interface {
	Product(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     Repository
	products productLookup
	now      func() time.Time
}

func NewService(repo Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product lookup required")
	}
	return &service{repo: repo, products: products, now: time.Now}, nil
}

func normalizeInput(input CustomerInput) (CustomerInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if input.Name == "" {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer email")
		}
	}
	return input, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CustomerInput) (*models.Customer, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	customer := &models.Customer{Name: input.Name, Email: input.Email}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

func (s *service) UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*models.Customer, error) {
	input, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	customer.Name = input.Name
	customer.Email = input.Email
	if err := s.repo.Update(ctx, customer); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}
	return customer, nil
}

func (s *service) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) ListCustomers(ctx context.Context, search string) ([]models.Customer, error) {
	customers, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}
	return customers, nil
}

func (s *service) SetPrice(ctx context.Context, customerID, productID uuid.UUID, price decimal.Decimal) (*models.CustomerPrice, error) {
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	if _, err := s.products.Product(ctx, nil, productID); err != nil {
		return nil, err
	}
	row := &models.CustomerPrice{
		CustomerID: customerID,
		ProductID:  productID,
		Price:      price,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.repo.UpsertPrice(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save customer price")
	}
	stored, err := s.repo.FindPrice(ctx, customerID, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload customer price")
	}
	return stored, nil
}

func (s *service) ListPrices(ctx context.Context, customerID uuid.UUID) ([]models.CustomerPrice, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	prices, err := s.repo.ListPrices(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer prices")
	}
	return prices, nil
}

func (s *service) DeletePrice(ctx context.Context, customerID, productID uuid.UUID) error {
	deleted, err := s.repo.DeletePrice(ctx, customerID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete customer price")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "customer price not found")
	}
	return nil
}

// PriceFor returns the customer's negotiated price, falling back to the
// product's selling price.
func (s *service) PriceFor(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, product *models.Product) (decimal.Decimal, error) {
	if product == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product required")
	}
	price, err := s.repo.WithTx(tx).FindPrice(ctx, customerID, product.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return product.SellingPrice, nil
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer price")
	}
	return price.Price, nil
}
