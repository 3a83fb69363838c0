package purchasing

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/internal/inventory"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/pagination"
	"github.com/angelmondragon/stockroom/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Reorderer lets the alert scan queue replenishment without opening its own transaction.
type Reorderer interface {
	HasOpenLineForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (bool, error)
	AddDraftLine(ctx context.Context, tx *gorm.DB, supplierID, productID uuid.UUID, quantity int, unitCost decimal.Decimal) (*models.PurchaseOrder, error)
}

// Service manages suppliers and the purchase orders that replenish stock.
type Service interface {
	Reorderer
	CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context) ([]models.Supplier, error)
	CreatePurchaseOrder(ctx context.Context, input CreatePurchaseOrderInput) (*models.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseOrderStatus, actor string) (*models.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, id uuid.UUID, actor string) (*models.PurchaseOrder, error)
}

type SupplierInput struct {
	Name         string
	Email        string
	LeadTimeDays int
}

type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitCost  *decimal.Decimal
}

type CreatePurchaseOrderInput struct {
	SupplierID   uuid.UUID
	ExpectedDate *time.Time
	Notes        string
	Lines        []LineInput
	Actor        string
}

type ListParams struct {
	Status     *enums.PurchaseOrderStatus
	SupplierID *uuid.UUID
	Limit      int
	Cursor     string
}

type ListResult = types.Page[models.PurchaseOrder]

type service struct {
	repo   Repository
	tx     txRunner
	ledger inventory.Ledger
	audit  audit.Recorder
	now    func() time.Time
}

func NewService(repo Repository, tx txRunner, ledger inventory.Ledger, auditor audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "purchasing repository required")
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

func (s *service) CreateSupplier(ctx context.Context, input SupplierInput) (*models.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name required")
	}
	email := strings.TrimSpace(input.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier email")
		}
	}
	if input.LeadTimeDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time cannot be negative")
	}
	supplier := &models.Supplier{Name: name, Email: email, LeadTimeDays: input.LeadTimeDays}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return supplier, nil
}

func (s *service) GetSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return s.supplier(ctx, s.repo, id)
}

func (s *service) supplier(ctx context.Context, repo Repository, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := repo.FindSupplier(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return supplier, nil
}

func (s *service) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return suppliers, nil
}

func (s *service) CreatePurchaseOrder(ctx context.Context, input CreatePurchaseOrderInput) (*models.PurchaseOrder, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order needs at least one line")
	}
	for i, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d quantity must be positive", i))
		}
		if line.UnitCost != nil && line.UnitCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d unit cost cannot be negative", i))
		}
	}

	var created *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := s.supplier(ctx, repo, input.SupplierID); err != nil {
			return err
		}
		po := &models.PurchaseOrder{
			SupplierID:   input.SupplierID,
			Status:       enums.PurchaseOrderStatusDraft,
			ExpectedDate: input.ExpectedDate,
			Notes:        strings.TrimSpace(input.Notes),
		}
		for _, line := range input.Lines {
			product, err := s.ledger.Product(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}
			cost := product.CostPrice
			if line.UnitCost != nil {
				cost = *line.UnitCost
			}
			po.Lines = append(po.Lines, models.PurchaseOrderLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitCost:  cost,
			})
		}
		if err := repo.CreatePurchaseOrder(ctx, po); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
		}
		created = po
		return s.audit.Record(ctx, tx, audit.Entry{
			Action:     "purchase_order.created",
			EntityType: "purchase_order",
			EntityID:   po.ID,
			Actor:      input.Actor,
			Details:    map[string]any{"supplier_id": po.SupplierID, "lines": len(po.Lines)},
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	return s.purchaseOrder(ctx, s.repo, id)
}

func (s *service) purchaseOrder(ctx context.Context, repo Repository, id uuid.UUID) (*models.PurchaseOrder, error) {
	po, err := repo.FindPurchaseOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return po, nil
}

func (s *service) ListPurchaseOrders(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{Status: params.Status, SupplierID: params.SupplierID, Limit: params.Limit}
	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	query.Cursor = cursor
	rows, next, err := s.repo.ListPurchaseOrders(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	return pagination.NewPage(rows, next), nil
}

var allowedSources = map[enums.PurchaseOrderStatus][]enums.PurchaseOrderStatus{
	enums.PurchaseOrderStatusSent:      {enums.PurchaseOrderStatusDraft},
	enums.PurchaseOrderStatusCancelled: {enums.PurchaseOrderStatusDraft, enums.PurchaseOrderStatusSent},
}

// UpdateStatus handles the manual transitions. Receiving goes through
// ReceivePurchaseOrder because it moves stock.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseOrderStatus, actor string) (*models.PurchaseOrder, error) {
	from, ok := allowedSources[status]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be sent or cancelled")
	}
	var updated *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		po, err := s.purchaseOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		moved, err := repo.TransitionStatus(ctx, id, from, status, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move purchase order from %s to %s", po.Status, status))
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Action:     "purchase_order.status_changed",
			EntityType: "purchase_order",
			EntityID:   id,
			Actor:      actor,
			Details:    map[string]any{"from": po.Status, "to": status},
		}); err != nil {
			return err
		}
		updated, err = s.purchaseOrder(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReceivePurchaseOrder books every line as incoming stock and closes the order.
func (s *service) ReceivePurchaseOrder(ctx context.Context, id uuid.UUID, actor string) (*models.PurchaseOrder, error) {
	var received *models.PurchaseOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		po, err := s.purchaseOrder(ctx, repo, id)
		if err != nil {
			return err
		}
		if !po.Status.IsOpen() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("purchase order is %s", po.Status))
		}
		now := s.now().UTC()
		moved, err := repo.TransitionStatus(ctx, id,
			[]enums.PurchaseOrderStatus{enums.PurchaseOrderStatusDraft, enums.PurchaseOrderStatusSent},
			enums.PurchaseOrderStatusReceived,
			map[string]any{"received_at": now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark purchase order received")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeConflict, "purchase order changed concurrently")
		}

		ref := inventory.MovementRef{
			Reason:    "purchase order received",
			Reference: po.ID.String(),
			Actor:     actor,
		}
		for _, line := range po.Lines {
			if _, err := s.ledger.Receive(ctx, tx, line.ProductID, line.Quantity, ref); err != nil {
				return err
			}
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Action:     "purchase_order.received",
			EntityType: "purchase_order",
			EntityID:   id,
			Actor:      actor,
			Details:    map[string]any{"lines": len(po.Lines)},
		}); err != nil {
			return err
		}
		received, err = s.purchaseOrder(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return received, nil
}

func (s *service) HasOpenLineForProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (bool, error) {
	open, err := s.repo.WithTx(tx).HasOpenLineForProduct(ctx, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open purchase lines")
	}
	return open, nil
}

// AddDraftLine appends a line to the supplier's oldest draft purchase order,
// opening a new draft when there is none.
func (s *service) AddDraftLine(ctx context.Context, tx *gorm.DB, supplierID, productID uuid.UUID, quantity int, unitCost decimal.Decimal) (*models.PurchaseOrder, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reorder quantity must be positive")
	}
	repo := s.repo.WithTx(tx)
	po, err := repo.FindDraftForSupplier(ctx, supplierID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := s.supplier(ctx, repo, supplierID); err != nil {
			return nil, err
		}
		po = &models.PurchaseOrder{
			SupplierID: supplierID,
			Status:     enums.PurchaseOrderStatusDraft,
			Notes:      "created by automation",
		}
		if err := repo.CreatePurchaseOrder(ctx, po); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create draft purchase order")
		}
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft purchase order")
	}

	line := &models.PurchaseOrderLine{
		PurchaseOrderID: po.ID,
		ProductID:       productID,
		Quantity:        quantity,
		UnitCost:        unitCost,
	}
	if err := repo.AddLine(ctx, line); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add purchase order line")
	}
	return s.purchaseOrder(ctx, repo, po.ID)
}
