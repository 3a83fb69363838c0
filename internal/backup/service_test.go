package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/internal/audit"
	"github.com/angelmondragon/stockroom/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	auditor, err := audit.NewService(audit.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Tx:         client,
		Audit:      auditor,
		Version:    "2.1.0",
	})
	require.NoError(t, err)
	return svc, conn
}

func seed(t *testing.T, conn *gorm.DB) {
	t.Helper()
	supplier := &models.Supplier{Name: "Parts Co", Email: "sales@parts.test", LeadTimeDays: 4}
	require.NoError(t, conn.Create(supplier).Error)
	customer := &models.Customer{Name: "Acme", Email: "buyer@acme.test"}
	require.NoError(t, conn.Create(customer).Error)
	product := &models.Product{
		SKU: "BOLT-1", Name: `Bolt "M8"`, Unit: "box", SupplierID: &supplier.ID,
		Stock: 40, ReservedStock: 10, MinimumStock: 5, MaximumStock: 80,
		CostPrice: decimal.RequireFromString("1.25"), SellingPrice: decimal.RequireFromString("2.5"),
	}
	require.NoError(t, conn.Create(product).Error)
	require.NoError(t, conn.Create(&models.CustomerPrice{CustomerID: customer.ID, ProductID: product.ID, Price: decimal.NewFromInt(2)}).Error)

	order := &models.Order{
		Number: 1, CustomerID: customer.ID, Status: enums.OrderStatusPreparing, PreparationProgress: 50,
		Items: []models.OrderItem{
			{Position: 0, ProductID: product.ID, Quantity: 10, UnitPrice: decimal.NewFromInt(2), PreparedQuantity: 10, PreparationStatus: enums.PreparationStatusComplete},
			{Position: 1, ProductID: product.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(2), PreparationStatus: enums.PreparationStatusPending},
		},
	}
	require.NoError(t, conn.Create(order).Error)
	require.NoError(t, conn.Create(&models.StockMovement{ProductID: product.ID, Type: enums.MovementTypeReserved, Quantity: 10, OrderID: &order.ID, Reason: "preparation"}).Error)

	po := &models.PurchaseOrder{
		SupplierID: supplier.ID, Status: enums.PurchaseOrderStatusDraft,
		Lines: []models.PurchaseOrderLine{{ProductID: product.ID, Quantity: 20, UnitCost: decimal.RequireFromString("1.25")}},
	}
	require.NoError(t, conn.Create(po).Error)
	require.NoError(t, conn.Create(&models.AutomationRule{Name: "restock", Trigger: enums.RuleTriggerLowStock, Action: enums.RuleActionReorder, Enabled: true}).Error)
}

func sections(t *testing.T, b *Backup) map[string]json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &out))
	delete(out, "export_date")
	delete(out, "audit_entries")
	return out
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seed(t, conn)

	first, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Equal(t, "2.1.0", first.Version)
	require.Len(t, first.Orders, 1)
	require.Len(t, first.Orders[0].Items, 2)

	raw, err := json.Marshal(first)
	require.NoError(t, err)

	target, targetDB := newTestService(t)
	summary, err := target.Import(ctx, raw, "tester")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Products)
	require.Equal(t, 1, summary.Orders)

	second, err := target.Export(ctx)
	require.NoError(t, err)
	require.Equal(t, sections(t, first), sections(t, second))

	var imported int64
	require.NoError(t, targetDB.Model(&models.AuditEntry{}).Where("action = ?", "backup.imported").Count(&imported).Error)
	require.EqualValues(t, 1, imported)
}

func TestImportOverwritesExistingData(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seed(t, conn)

	doc := []byte(`{"products":[],"orders":[],"customers":[{"id":"` + uuid.NewString() + `","name":"Solo","email":"","created_at":"2026-01-02T03:04:05Z"}],"suppliers":[]}`)
	_, err := svc.Import(ctx, doc, "")
	require.NoError(t, err)

	var products, customers, items, lines int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, conn.Model(&models.Customer{}).Count(&customers).Error)
	require.NoError(t, conn.Model(&models.OrderItem{}).Count(&items).Error)
	require.NoError(t, conn.Model(&models.PurchaseOrderLine{}).Count(&lines).Error)
	require.Zero(t, products)
	require.Zero(t, items)
	require.Zero(t, lines)
	require.EqualValues(t, 1, customers)
}

func TestImportRequiresTopLevelKeys(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seed(t, conn)

	_, err := svc.Import(ctx, []byte(`{"products":[],"orders":[],"customers":[]}`), "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Import(ctx, []byte(`[1,2]`), "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var products int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&products).Error)
	require.EqualValues(t, 1, products)
}

func TestExportCSVQuotesEveryCell(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seed(t, conn)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, "products", &buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], `"id","sku","name","unit","supplier_id","stock"`))
	require.Contains(t, lines[1], `"BOLT-1","Bolt ""M8""","box"`)
	require.Contains(t, lines[1], `"1.25","2.5"`)

	buf.Reset()
	require.NoError(t, svc.ExportCSV(ctx, "orders", &buf))
	require.Contains(t, buf.String(), `"[{""id"":`)

	buf.Reset()
	require.NoError(t, svc.ExportCSV(ctx, "notifications", &buf))
	require.Equal(t, `"id","type","product_id","rule_id","title","message","read_at","created_at"`+"\r\n", buf.String())

	err := svc.ExportCSV(ctx, "widgets", &buf)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestExportXLSXWritesProducts(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seed(t, conn)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(ctx, &buf))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()
	rows, err := file.GetRows(productsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, productColumns, rows[0])
	require.Equal(t, "BOLT-1", rows[1][0])
	require.Equal(t, "40", rows[1][3])
	require.Equal(t, "50", rows[1][10])
}

func TestEntitiesSorted(t *testing.T) {
	svc, _ := newTestService(t)
	names := svc.Entities()
	require.Len(t, names, 11)
	require.Equal(t, "audit_entries", names[0])
	require.Contains(t, names, "products")
}
