package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
	"github.com/angelmondragon/stockroom/pkg/types"
)

type testEnv struct {
	db     *gorm.DB
	svc    Service
	ledger Ledger
	repo   Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	client, conn := dbtest.Client(t)
	repo := NewRepository(conn)
	ledger, err := NewLedger(repo, nil)
	require.NoError(t, err)
	auditor, err := audit.NewService(audit.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(repo, client, ledger, auditor)
	require.NoError(t, err)
	return &testEnv{db: conn, svc: svc, ledger: ledger, repo: repo}
}

func (e *testEnv) createProduct(t *testing.T, sku string, stock int) *models.Product {
	t.Helper()
	product, err := e.svc.CreateProduct(context.Background(), CreateProductInput{
		SKU:          sku,
		Name:         "Product " + sku,
		Stock:        stock,
		MinimumStock: 2,
		MaximumStock: 50,
		CostPrice:    decimal.NewFromInt(4),
		SellingPrice: decimal.NewFromInt(10),
		Actor:        "tester",
	})
	require.NoError(t, err)
	return product
}

func TestCreateProductRecordsInitialStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "SKU-1", 12)

	require.Equal(t, 12, product.Stock)
	require.Equal(t, 0, product.ReservedStock)
	require.Equal(t, 12, product.AvailableStock)
	require.Equal(t, "unit", product.Unit)

	list, err := env.svc.ListMovements(context.Background(), ListMovementsParams{ProductID: &product.ID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, enums.MovementTypeIn, list.Items[0].Type)
	require.Equal(t, 12, list.Items[0].Quantity)
	require.Equal(t, "initial stock", list.Items[0].Reason)
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	env := newTestEnv(t)
	env.createProduct(t, "SKU-DUP", 0)

	_, err := env.svc.CreateProduct(context.Background(), CreateProductInput{SKU: "SKU-DUP", Name: "Other"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []CreateProductInput{
		{Name: "no sku"},
		{SKU: "X"},
		{SKU: "X", Name: "neg", Stock: -1},
		{SKU: "X", Name: "thresholds", MinimumStock: 10, MaximumStock: 5},
		{SKU: "X", Name: "price", SellingPrice: decimal.NewFromInt(-1)},
	}
	for _, input := range cases {
		_, err := env.svc.CreateProduct(ctx, input)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "input %+v got %v", input, err)
	}
}

func TestRecordMovementKeepsAvailableConsistent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-MOVE", 10)

	res, err := env.svc.RecordMovement(ctx, RecordMovementInput{ProductID: product.ID, Type: enums.MovementTypeIn, Quantity: 5, Reason: "delivery"})
	require.NoError(t, err)
	require.Equal(t, 15, res.Product.Stock)
	require.Equal(t, 15, res.Product.AvailableStock)
	require.Equal(t, enums.MovementTypeIn, res.Movement.Type)

	res, err = env.svc.RecordMovement(ctx, RecordMovementInput{ProductID: product.ID, Type: enums.MovementTypeOut, Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, 12, res.Product.Stock)

	res, err = env.svc.RecordMovement(ctx, RecordMovementInput{ProductID: product.ID, Type: enums.MovementTypeAdjustment, Quantity: -2, Reason: "count"})
	require.NoError(t, err)
	require.Equal(t, 10, res.Product.Stock)
	require.Equal(t, -2, res.Movement.Quantity)

	stored, err := env.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, stored.Stock-stored.ReservedStock, stored.AvailableStock)
	require.Equal(t, product.Version+3, stored.Version)
}

func TestRecordMovementCannotGoBelowReserved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-FLOOR", 10)

	require.NoError(t, env.db.Transaction(func(tx *gorm.DB) error {
		_, err := env.ledger.Reserve(ctx, tx, product.ID, 8, MovementRef{Reason: "order"})
		return err
	}))

	_, err := env.svc.RecordMovement(ctx, RecordMovementInput{ProductID: product.ID, Type: enums.MovementTypeOut, Quantity: 3})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	_, err = env.svc.RecordMovement(ctx, RecordMovementInput{ProductID: product.ID, Type: enums.MovementTypeAdjustment, Quantity: -3})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	stored, err := env.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, 10, stored.Stock)
	require.Equal(t, 8, stored.ReservedStock)
	require.Equal(t, 2, stored.AvailableStock)
}

func TestRecordMovementRejectsLedgerOnlyTypes(t *testing.T) {
	env := newTestEnv(t)
	product := env.createProduct(t, "SKU-TYPE", 1)
	_, err := env.svc.RecordMovement(context.Background(), RecordMovementInput{ProductID: product.ID, Type: enums.MovementTypeReserved, Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLedgerDetectsStaleVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-VER", 10)

	ok, err := env.repo.UpdateStockVersioned(ctx, product.ID, product.Version+5, 1, 0, product.UpdatedAt)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = env.repo.UpdateStockVersioned(ctx, product.ID, product.Version, 9, 0, product.UpdatedAt)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLedgerShipDecrementsStockAndReservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-SHIP", 10)

	var shipped *models.Product
	require.NoError(t, env.db.Transaction(func(tx *gorm.DB) error {
		if _, err := env.ledger.Reserve(ctx, tx, product.ID, 4, MovementRef{}); err != nil {
			return err
		}
		var err error
		shipped, err = env.ledger.Ship(ctx, tx, product.ID, 4, MovementRef{Reference: "order-1"})
		return err
	}))
	require.Equal(t, 6, shipped.Stock)
	require.Equal(t, 0, shipped.ReservedStock)
	require.Equal(t, 6, shipped.AvailableStock)

	_, err := env.ledger.Release(ctx, env.db, product.ID, 1, MovementRef{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestLedgerProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ledger.Reserve(context.Background(), env.db, uuid.New(), 1, MovementRef{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-UPD", 3)

	name := "Renamed"
	minimum := 5
	price := decimal.RequireFromString("12.50")
	supplier := &models.Supplier{Name: "Acme"}
	require.NoError(t, env.db.Create(supplier).Error)

	updated, err := env.svc.UpdateProduct(ctx, product.ID, UpdateProductInput{
		Name:         &name,
		MinimumStock: &minimum,
		SellingPrice: &price,
		SupplierID:   types.Some(supplier.ID),
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, 5, updated.MinimumStock)
	require.Equal(t, 3, updated.Stock)

	stored, err := env.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, price.Equal(stored.SellingPrice))
	require.NotNil(t, stored.SupplierID)
	require.Equal(t, supplier.ID, *stored.SupplierID)
	require.Equal(t, updated.Version, stored.Version)

	stale := product.Version
	_, err = env.svc.UpdateProduct(ctx, product.ID, UpdateProductInput{Name: &name, Version: &stale})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = env.svc.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Name: &name})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-DEL", 5)
	reserved := env.createProduct(t, "SKU-RES", 5)

	require.NoError(t, env.db.Transaction(func(tx *gorm.DB) error {
		_, err := env.ledger.Reserve(ctx, tx, reserved.ID, 1, MovementRef{})
		return err
	}))

	err := env.svc.DeleteProduct(ctx, reserved.ID, "tester")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	require.NoError(t, env.svc.DeleteProduct(ctx, product.ID, "tester"))
	_, err = env.svc.GetProduct(ctx, product.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = env.svc.DeleteProduct(ctx, product.ID, "tester")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListProductsLowStockFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createProduct(t, "SKU-LOW", 1)
	env.createProduct(t, "SKU-OK", 20)

	low, err := env.svc.ListProducts(ctx, ProductFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	require.Equal(t, "SKU-LOW", low[0].SKU)

	all, err := env.svc.ListProducts(ctx, ProductFilter{Search: "sku-o"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "SKU-OK", all[0].SKU)
}

func TestListMovementsPaginates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "SKU-PAGE", 1)
	for i := 0; i < 4; i++ {
		_, err := env.svc.RecordMovement(ctx, RecordMovementInput{ProductID: product.ID, Type: enums.MovementTypeIn, Quantity: 1})
		require.NoError(t, err)
	}

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for {
		page, err := env.svc.ListMovements(ctx, ListMovementsParams{ProductID: &product.ID, Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, row := range page.Items {
			require.False(t, seen[row.ID])
			seen[row.ID] = true
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	require.Len(t, seen, 5)
}
