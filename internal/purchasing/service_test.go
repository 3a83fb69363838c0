package purchasing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/internal/inventory"
	"github.com/angelmondragon/stockroom/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

type testEnv struct {
	db  *gorm.DB
	svc Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	client, conn := dbtest.Client(t)
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn), nil)
	require.NoError(t, err)
	auditor, err := audit.NewService(audit.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), client, ledger, auditor)
	require.NoError(t, err)
	return &testEnv{db: conn, svc: svc}
}

func (e *testEnv) product(t *testing.T, sku string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{SKU: sku, Name: sku, Unit: "unit", Stock: stock, CostPrice: decimal.NewFromInt(3)}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *testEnv) supplier(t *testing.T) *models.Supplier {
	t.Helper()
	supplier, err := e.svc.CreateSupplier(context.Background(), SupplierInput{Name: "Parts Co", Email: "sales@parts.test", LeadTimeDays: 5})
	require.NoError(t, err)
	return supplier
}

func TestCreateSupplierValidates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreateSupplier(ctx, SupplierInput{Name: ""})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = env.svc.CreateSupplier(ctx, SupplierInput{Name: "X", LeadTimeDays: -1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	env.supplier(t)
	suppliers, err := env.svc.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
}

func TestCreatePurchaseOrderDefaultsUnitCost(t *testing.T) {
	env := newTestEnv(t)
	supplier := env.supplier(t)
	product := env.product(t, "SKU-1", 0)
	custom := decimal.NewFromInt(2)

	po, err := env.svc.CreatePurchaseOrder(context.Background(), CreatePurchaseOrderInput{
		SupplierID: supplier.ID,
		Lines: []LineInput{
			{ProductID: product.ID, Quantity: 5},
			{ProductID: product.ID, Quantity: 1, UnitCost: &custom},
		},
	})
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseOrderStatusDraft, po.Status)
	require.Len(t, po.Lines, 2)
	require.True(t, po.Lines[0].UnitCost.Equal(decimal.NewFromInt(3)))
	require.True(t, po.Lines[1].UnitCost.Equal(custom))
}

func TestCreatePurchaseOrderRejectsUnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	supplier := env.supplier(t)
	ctx := context.Background()

	_, err := env.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{SupplierID: supplier.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = env.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{
		SupplierID: uuid.New(),
		Lines:      []LineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = env.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{
		SupplierID: supplier.ID,
		Lines:      []LineInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestReceivePurchaseOrderAddsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.supplier(t)
	product := env.product(t, "SKU-1", 4)

	po, err := env.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{
		SupplierID: supplier.ID,
		Lines:      []LineInput{{ProductID: product.ID, Quantity: 6}},
	})
	require.NoError(t, err)

	received, err := env.svc.ReceivePurchaseOrder(ctx, po.ID, "receiver")
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseOrderStatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)

	var reloaded models.Product
	require.NoError(t, env.db.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 10, reloaded.Stock)
	require.Equal(t, 10, reloaded.AvailableStock)

	var movements []models.StockMovement
	require.NoError(t, env.db.Where("product_id = ?", product.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	require.Equal(t, enums.MovementTypeIn, movements[0].Type)
	require.Equal(t, 6, movements[0].Quantity)
	require.Equal(t, po.ID.String(), movements[0].Reference)

	_, err = env.svc.ReceivePurchaseOrder(ctx, po.ID, "receiver")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdateStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.supplier(t)
	product := env.product(t, "SKU-1", 0)

	po, err := env.svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{
		SupplierID: supplier.ID,
		Lines:      []LineInput{{ProductID: product.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.svc.UpdateStatus(ctx, po.ID, enums.PurchaseOrderStatusReceived, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	sent, err := env.svc.UpdateStatus(ctx, po.ID, enums.PurchaseOrderStatusSent, "")
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseOrderStatusSent, sent.Status)

	_, err = env.svc.UpdateStatus(ctx, po.ID, enums.PurchaseOrderStatusSent, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	cancelled, err := env.svc.UpdateStatus(ctx, po.ID, enums.PurchaseOrderStatusCancelled, "")
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseOrderStatusCancelled, cancelled.Status)

	_, err = env.svc.ReceivePurchaseOrder(ctx, po.ID, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestAddDraftLineReusesDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.supplier(t)
	first := env.product(t, "SKU-1", 0)
	second := env.product(t, "SKU-2", 0)

	open, err := env.svc.HasOpenLineForProduct(ctx, nil, first.ID)
	require.NoError(t, err)
	require.False(t, open)

	po1, err := env.svc.AddDraftLine(ctx, env.db, supplier.ID, first.ID, 4, decimal.NewFromInt(3))
	require.NoError(t, err)
	po2, err := env.svc.AddDraftLine(ctx, env.db, supplier.ID, second.ID, 2, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.Equal(t, po1.ID, po2.ID)
	require.Len(t, po2.Lines, 2)

	open, err = env.svc.HasOpenLineForProduct(ctx, nil, first.ID)
	require.NoError(t, err)
	require.True(t, open)

	list, err := env.svc.ListPurchaseOrders(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Empty(t, list.Cursor)
}
