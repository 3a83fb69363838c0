package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom/pkg/db/dbtest"
	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return fixedNow }
	return impl, conn
}

type seeder struct {
	t      *testing.T
	db     *gorm.DB
	number int
}

func (s *seeder) product(sku string, stock int, cost, selling int64) *models.Product {
	p := &models.Product{SKU: sku, Name: sku, Unit: "unit", Stock: stock, CostPrice: decimal.NewFromInt(cost), SellingPrice: decimal.NewFromInt(selling)}
	require.NoError(s.t, s.db.Create(p).Error)
	return p
}

func (s *seeder) customer(name string) *models.Customer {
	c := &models.Customer{Name: name}
	require.NoError(s.t, s.db.Create(c).Error)
	return c
}

func (s *seeder) order(customer uuid.UUID, at time.Time, status enums.OrderStatus, product uuid.UUID, qty int, price int64) {
	s.number++
	o := &models.Order{
		Number:     s.number,
		CustomerID: customer,
		Status:     status,
		CreatedAt:  at,
		Items: []models.OrderItem{{
			ProductID:         product,
			Quantity:          qty,
			UnitPrice:         decimal.NewFromInt(price),
			PreparationStatus: enums.PreparationStatusPending,
		}},
	}
	require.NoError(s.t, s.db.Create(o).Error)
}

func TestReportsFromOrders(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	seed := &seeder{t: t, db: conn}

	top := seed.product("TOP", 10, 2, 5)
	mid := seed.product("MID", 0, 1, 1)
	tail := seed.product("TAIL", 4, 1, 3)
	idle := seed.product("IDLE", 0, 1, 1)
	buyer := seed.customer("Buyer")
	seed.customer("Window Shopper")

	for m := 0; m < 6; m++ {
		at := time.Date(2026, time.Month(1+m), 10, 9, 0, 0, 0, time.UTC)
		seed.order(buyer.ID, at, enums.OrderStatusDelivered, top.ID, 10+2*m, 10)
	}
	seed.order(buyer.ID, fixedNow.AddDate(0, 0, -10), enums.OrderStatusDelivered, mid.ID, 25, 10)
	seed.order(buyer.ID, fixedNow.AddDate(0, 0, -1), enums.OrderStatusPending, tail.ID, 20, 5)
	seed.order(buyer.ID, fixedNow.AddDate(0, 0, -1), enums.OrderStatusCancelled, tail.ID, 1000, 5)
	seed.order(buyer.ID, fixedNow.AddDate(-2, 0, 0), enums.OrderStatusDelivered, tail.ID, 1000, 5)

	// Revenue 900 / 250 / 100 / 0 of 1250: cumulative 0.72, 0.92, 1.0, 1.0.
	abc, err := svc.ABCReport(ctx)
	require.NoError(t, err)
	require.Len(t, abc, 4)
	require.Equal(t, "TOP", abc[0].SKU)
	require.True(t, abc[0].Revenue.Equal(decimal.NewFromInt(900)), abc[0].Revenue.String())
	require.Equal(t, enums.ABCClassA, abc[0].Class)
	require.InDelta(t, 0.72, abc[0].CumulativeShare, 1e-9)
	require.Equal(t, "MID", abc[1].SKU)
	require.Equal(t, enums.ABCClassB, abc[1].Class)
	require.InDelta(t, 0.92, abc[1].CumulativeShare, 1e-9)
	require.Equal(t, "TAIL", abc[2].SKU)
	require.True(t, abc[2].Revenue.Equal(decimal.NewFromInt(100)), abc[2].Revenue.String())
	require.Equal(t, enums.ABCClassC, abc[2].Class)
	require.Equal(t, idle.ID, abc[3].ProductID)
	require.Equal(t, enums.ABCClassC, abc[3].Class)

	bandA := 0.0
	for _, row := range abc {
		if row.Class == enums.ABCClassA {
			bandA += row.Share
		}
	}
	require.LessOrEqual(t, bandA, 0.80)

	xyz, err := svc.XYZReport(ctx)
	require.NoError(t, err)
	for _, row := range xyz {
		if row.ProductID == top.ID {
			require.Equal(t, []int{10, 12, 14, 16, 18, 20}, row.Monthly)
			require.Equal(t, enums.XYZClassX, row.Class)
		}
	}

	forecast, err := svc.ForecastReport(ctx, top.ID)
	require.NoError(t, err)
	require.Len(t, forecast.History, ForecastWindowMonths)
	require.Equal(t, []int{10, 12, 14, 16, 18, 20}, forecast.History[6:])
	require.Greater(t, forecast.Slope, 0.0)

	_, err = svc.ForecastReport(ctx, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	cohorts, err := svc.CohortReport(ctx)
	require.NoError(t, err)
	require.Len(t, cohorts.Customers, 2)
	require.Equal(t, enums.CustomerSegmentLoyal, cohorts.Customers[0].Segment)
	require.Equal(t, 9, cohorts.Customers[0].OrderCount)
	require.Equal(t, enums.CustomerSegmentProspect, cohorts.Customers[1].Segment)
	require.Equal(t, 1, cohorts.Counts[enums.CustomerSegmentLoyal])

	valuation, err := svc.Valuation(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, valuation.Products)
	require.Equal(t, 14, valuation.Units)
	require.True(t, valuation.CostValue.Equal(decimal.NewFromInt(24)))
	require.True(t, valuation.RetailValue.Equal(decimal.NewFromInt(62)))
	require.True(t, valuation.PotentialProfit.Equal(decimal.NewFromInt(38)))
}
