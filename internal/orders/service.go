package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/internal/inventory"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/pagination"
)

// Service covers the order lifecycle and the preparation ledger.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, params ListParams) (*ListResult, error)
	PrepareItem(ctx context.Context, input PrepareItemInput) (*PrepareResult, error)
	CompleteOrderPreparation(ctx context.Context, input CompleteInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	ledger     inventory.Ledger
	backorders BackorderGenerator
	customers  customerLookup
	pricer     Pricer
	audit      audit.Recorder
	now        func() time.Time
}

// ServiceParams groups the collaborators of the order service.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Ledger     inventory.Ledger
	Backorders BackorderGenerator
	Customers  customerLookup
	Pricer     Pricer
	Audit      audit.Recorder
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stock ledger required")
	}
	if params.Backorders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backorder generator required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customer lookup required")
	}
	if params.Pricer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pricer required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit recorder required")
	}
	return &service{
		repo:       params.Repository,
		tx:         params.Tx,
		ledger:     params.Ledger,
		backorders: params.Backorders,
		customers:  params.Customers,
		pricer:     params.Pricer,
		audit:      params.Audit,
		now:        time.Now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one item")
	}
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d product id required", i))
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d quantity must be positive", i))
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d unit price cannot be negative", i))
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d repeats a product already on the order", i))
		}
		seen[item.ProductID] = struct{}{}
	}
	if _, err := s.customers.GetCustomer(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		order := &models.Order{
			Number:     number,
			CustomerID: input.CustomerID,
			Status:     enums.OrderStatusPending,
			Notes:      strings.TrimSpace(input.Notes),
		}
		for i, item := range input.Items {
			product, err := s.ledger.Product(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}
			price := product.SellingPrice
			if item.UnitPrice != nil {
				price = *item.UnitPrice
			} else {
				price, err = s.pricer.PriceFor(ctx, tx, input.CustomerID, product)
				if err != nil {
					return err
				}
			}
			order.Items = append(order.Items, models.OrderItem{
				Position:          i,
				ProductID:         product.ID,
				Quantity:          item.Quantity,
				UnitPrice:         price,
				AvailableStock:    product.Stock - product.ReservedStock,
				PreparationStatus: enums.PreparationStatusPending,
			})
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		created = order
		return s.audit.Record(ctx, tx, audit.Entry{
			Action:     "order.created",
			EntityType: "order",
			EntityID:   order.ID,
			Actor:      input.Actor,
			Details:    map[string]any{"number": order.Number, "items": len(order.Items), "total": order.Total()},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.loadOrder(ctx, s.repo, id)
}

func (s *service) loadOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithDetails(map[string]any{"order_id": id})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	query := listParams{Status: params.Status, CustomerID: params.CustomerID, Limit: params.Limit}
	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	query.Cursor = cursor
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.NewPage(rows, next), nil
}

var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing: {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:     {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered},
}

func canTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range statusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// UpdateStatus walks the order lifecycle. Shipping books any reservation that
// has not left the shelf yet; cancelling hands reservations back to stock.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		from := order.Status
		if !canTransition(from, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, input.Status)).
				WithDetails(map[string]any{"from": from, "to": input.Status})
		}

		details := map[string]any{"from": from, "to": input.Status}
		switch input.Status {
		case enums.OrderStatusReady:
			if order.PreparationProgress < 100 {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order preparation is not complete").
					WithDetails(map[string]any{"preparation_progress": order.PreparationProgress})
			}
		case enums.OrderStatusShipped:
			shipped, err := s.shipOutstanding(ctx, tx, order, input.Actor)
			if err != nil {
				return err
			}
			details["shipped_units"] = shipped
		case enums.OrderStatusCancelled:
			released, returned, cancelled, err := s.releaseForCancel(ctx, tx, order, input.Actor)
			if err != nil {
				return err
			}
			details["released_units"] = released
			details["returned_units"] = returned
			details["cancelled_backorders"] = cancelled
		}

		if err := s.saveOrder(ctx, repo, order, map[string]any{
			"status":               input.Status,
			"preparation_progress": order.PreparationProgress,
		}); err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Action:     "order.status_changed",
			EntityType: "order",
			EntityID:   order.ID,
			Actor:      input.Actor,
			Details:    details,
		}); err != nil {
			return err
		}
		updated, err = s.loadOrder(ctx, repo, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// releaseForCancel returns every unshipped reservation, books units already
// shipped out back in (a cancellable order has not left the warehouse), and
// closes open backorders.
func (s *service) releaseForCancel(ctx context.Context, tx *gorm.DB, order *models.Order, actor string) (int, int, int64, error) {
	repo := s.repo.WithTx(tx)
	released, returned := 0, 0
	for i := range order.Items {
		item := &order.Items[i]
		if outstanding := item.OutstandingReservation(); outstanding > 0 {
			if _, err := s.ledger.Release(ctx, tx, item.ProductID, outstanding, s.movementRef(order, "order cancelled", actor)); err != nil {
				return 0, 0, 0, err
			}
			released += outstanding
		}
		if item.ShippedQuantity > 0 {
			if _, err := s.ledger.Receive(ctx, tx, item.ProductID, item.ShippedQuantity, s.movementRef(order, "order cancelled, shipment returned", actor)); err != nil {
				return 0, 0, 0, err
			}
			returned += item.ShippedQuantity
		}
		if item.PreparationStatus == enums.PreparationStatusPending && item.PreparedQuantity == 0 {
			continue
		}
		item.PreparedQuantity = 0
		item.ShippedQuantity = 0
		item.BackorderQuantity = item.Quantity
		item.PreparationStatus = classify(item.Quantity, 0)
		if err := repo.UpdateItem(ctx, item.ID, map[string]any{
			"prepared_quantity":  item.PreparedQuantity,
			"shipped_quantity":   item.ShippedQuantity,
			"backorder_quantity": item.BackorderQuantity,
			"preparation_status": item.PreparationStatus,
		}); err != nil {
			return 0, 0, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
		}
	}
	order.PreparationProgress = progress(order.Items)

	cancelled, err := s.backorders.CancelForOrder(ctx, tx, order.ID)
	if err != nil {
		return 0, 0, 0, err
	}
	return released, returned, cancelled, nil
}

func (s *service) saveOrder(ctx context.Context, repo Repository, order *models.Order, updates map[string]any) error {
	now := s.now().UTC()
	ok, err := repo.UpdateOrderVersioned(ctx, order.ID, order.Version, updates, now)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently").
			WithDetails(map[string]any{"order_id": order.ID, "version": order.Version})
	}
	order.Version++
	order.UpdatedAt = now
	return nil
}

func (s *service) movementRef(order *models.Order, reason, actor string) inventory.MovementRef {
	orderID := order.ID
	customerID := order.CustomerID
	return inventory.MovementRef{
		Reason:     reason,
		Reference:  fmt.Sprintf("order #%d", order.Number),
		OrderID:    &orderID,
		CustomerID: &customerID,
		Actor:      actor,
	}
}
