package backorders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/metrics"
	"github.com/angelmondragon/stockroom/pkg/pagination"
	"github.com/angelmondragon/stockroom/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Shortfall describes the part of an order line that could not be prepared.
type Shortfall struct {
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	CustomerID  uuid.UUID
	ProductID   uuid.UUID
	Quantity    int
	UnitPrice   decimal.Decimal
	Unit        string
	Priority    enums.BackorderPriority
}

// Generator keeps the backorder table in step with order preparation. It is
// idempotent per (order, product): repeated shortfalls update a single row.
type Generator interface {
	Upsert(ctx context.Context, tx *gorm.DB, shortfall Shortfall) (*models.BackorderItem, error)
	Resolve(ctx context.Context, tx *gorm.DB, orderID, productID uuid.UUID) error
	CancelForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error)
}

// Service exposes the backorder queue.
type Service interface {
	Generator
	Get(ctx context.Context, id uuid.UUID) (*models.BackorderItem, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.BackorderItem, error)
	PendingQuantities(ctx context.Context) (map[uuid.UUID]int, error)
}

type ListParams struct {
	Status    *enums.BackorderStatus
	ProductID *uuid.UUID
	OrderID   *uuid.UUID
	Limit     int
	Cursor    string
}

type ListResult = types.Page[models.BackorderItem]

// UpdateStatusInput moves a backorder through its queue states.
type UpdateStatusInput struct {
	ID           uuid.UUID
	Status       enums.BackorderStatus
	ExpectedDate *time.Time
	Priority     *enums.BackorderPriority
	Notes        *string
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

func NewService(repo Repository, tx txRunner, m *metrics.LedgerMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backorder repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: m, now: time.Now}, nil
}

func (s *service) Upsert(ctx context.Context, tx *gorm.DB, shortfall Shortfall) (*models.BackorderItem, error) {
	if shortfall.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backorder quantity must be positive")
	}
	priority := shortfall.Priority
	if priority == "" {
		priority = enums.BackorderPriorityNormal
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid backorder priority")
	}

	repo := s.repo.WithTx(tx)
	now := s.now().UTC()
	existing, err := repo.FindOpen(ctx, shortfall.OrderID, shortfall.ProductID)
	switch {
	case err == nil:
		if existing.Quantity == shortfall.Quantity {
			return existing, nil
		}
		if err := repo.Update(ctx, existing.ID, map[string]any{"quantity": shortfall.Quantity, "updated_at": now}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update backorder")
		}
		existing.Quantity = shortfall.Quantity
		existing.UpdatedAt = now
		s.metrics.IncBackorder("updated")
		return existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open backorder")
	}

	unit := shortfall.Unit
	if unit == "" {
		unit = "unit"
	}
	item := &models.BackorderItem{
		CustomerID:  shortfall.CustomerID,
		OrderID:     shortfall.OrderID,
		OrderItemID: shortfall.OrderItemID,
		ProductID:   shortfall.ProductID,
		Quantity:    shortfall.Quantity,
		UnitPrice:   shortfall.UnitPrice,
		Unit:        unit,
		Priority:    priority,
		Status:      enums.BackorderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create backorder")
	}
	s.metrics.IncBackorder("created")
	return item, nil
}

// Resolve marks the open backorder of an order line fulfilled once the line is
// fully prepared.
func (s *service) Resolve(ctx context.Context, tx *gorm.DB, orderID, productID uuid.UUID) error {
	rows, err := s.repo.WithTx(tx).TransitionOpen(ctx, orderID, &productID, enums.BackorderStatusFulfilled, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve backorder")
	}
	s.metrics.AddBackorders("fulfilled", rows)
	return nil
}

func (s *service) CancelForOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int64, error) {
	rows, err := s.repo.WithTx(tx).TransitionOpen(ctx, orderID, nil, enums.BackorderStatusCancelled, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel backorders")
	}
	s.metrics.AddBackorders("cancelled", rows)
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.BackorderItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "backorder not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load backorder")
	}
	return item, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{
		Status:    params.Status,
		ProductID: params.ProductID,
		OrderID:   params.OrderID,
		Limit:     params.Limit,
	}
	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	query.Cursor = cursor
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list backorders")
	}
	return pagination.NewPage(rows, next), nil
}

var allowedTransitions = map[enums.BackorderStatus][]enums.BackorderStatus{
	enums.BackorderStatusPending: {enums.BackorderStatusOrdered, enums.BackorderStatusFulfilled, enums.BackorderStatusCancelled},
	enums.BackorderStatusOrdered: {enums.BackorderStatusFulfilled, enums.BackorderStatusCancelled},
}

func canTransition(from, to enums.BackorderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.BackorderItem, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backorder id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid backorder status")
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid backorder priority")
	}

	var item *models.BackorderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "backorder not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load backorder")
		}
		if current.Status != input.Status && !canTransition(current.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "backorder status transition not allowed").
				WithDetails(map[string]any{"from": current.Status, "to": input.Status})
		}

		now := s.now().UTC()
		updates := map[string]any{"status": input.Status, "updated_at": now}
		current.Status = input.Status
		current.UpdatedAt = now
		if input.ExpectedDate != nil {
			expected := input.ExpectedDate.UTC()
			updates["expected_date"] = expected
			current.ExpectedDate = &expected
		}
		if input.Priority != nil {
			updates["priority"] = *input.Priority
			current.Priority = *input.Priority
		}
		if input.Notes != nil {
			notes := strings.TrimSpace(*input.Notes)
			updates["notes"] = notes
			current.Notes = notes
		}
		if err := repo.Update(ctx, current.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update backorder")
		}
		item = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) PendingQuantities(ctx context.Context) (map[uuid.UUID]int, error) {
	out, err := s.repo.PendingQuantities(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum pending backorders")
	}
	return out, nil
}
