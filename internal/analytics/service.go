package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockroom/pkg/db/models"
	"github.com/angelmondragon/stockroom/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

// Service builds read-only reports from orders, products and customers.
type Service interface {
	ABCReport(ctx context.Context) ([]ABCRow, error)
	XYZReport(ctx context.Context) ([]XYZRow, error)
	ForecastReport(ctx context.Context, productID uuid.UUID) (*ForecastRow, error)
	CohortReport(ctx context.Context) (*CohortReport, error)
	Valuation(ctx context.Context) (*Valuation, error)
}

type ProductLabel struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

type ABCRow struct {
	ABCResult
	ProductLabel
}

type XYZRow struct {
	XYZResult
	ProductLabel
	Monthly []int `json:"monthly"`
}

type ForecastRow struct {
	ForecastResult
	ProductLabel
	ProductID uuid.UUID `json:"product_id"`
	History   []int     `json:"history"`
}

type CohortReport struct {
	Customers []CustomerCohort              `json:"customers"`
	Counts    map[enums.CustomerSegment]int `json:"counts"`
}

// Valuation values the shelf at cost and at selling price.
type Valuation struct {
	Products        int             `json:"products"`
	Units           int             `json:"units"`
	ReservedUnits   int             `json:"reserved_units"`
	CostValue       decimal.Decimal `json:"cost_value"`
	RetailValue     decimal.Decimal `json:"retail_value"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analytics repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func labels(products []models.Product) map[uuid.UUID]ProductLabel {
	out := make(map[uuid.UUID]ProductLabel, len(products))
	for _, p := range products {
		out[p.ID] = ProductLabel{SKU: p.SKU, Name: p.Name}
	}
	return out
}

func (s *service) load(ctx context.Context, months int) ([]models.Product, []SaleLine, time.Time, error) {
	now := s.now().UTC()
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, nil, now, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	since := MonthStart(now, months-1)
	lines, err := s.repo.SaleLines(ctx, &since)
	if err != nil {
		return nil, nil, now, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales")
	}
	return products, lines, now, nil
}

// monthlyDemand buckets ordered units per product into `months` buckets ending this month.
func monthlyDemand(products []models.Product, lines []SaleLine, now time.Time, months int) map[uuid.UUID][]int {
	demand := make(map[uuid.UUID][]int, len(products))
	for _, p := range products {
		demand[p.ID] = make([]int, months)
	}
	for _, line := range lines {
		series, ok := demand[line.ProductID]
		if !ok {
			continue
		}
		if idx, ok := bucketIndex(line.CreatedAt, now, months); ok {
			series[idx] += line.Quantity
		}
	}
	return demand
}

func (s *service) ABCReport(ctx context.Context) ([]ABCRow, error) {
	products, lines, now, err := s.load(ctx, 12)
	if err != nil {
		return nil, err
	}
	revenue := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, line := range lines {
		if _, ok := bucketIndex(line.CreatedAt, now, 12); !ok {
			continue
		}
		revenue[line.ProductID] = revenue[line.ProductID].Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	inputs := make([]ProductRevenue, 0, len(products))
	for _, p := range products {
		inputs = append(inputs, ProductRevenue{ProductID: p.ID, Revenue: revenue[p.ID]})
	}

	names := labels(products)
	results := ABC(inputs)
	rows := make([]ABCRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, ABCRow{ABCResult: r, ProductLabel: names[r.ProductID]})
	}
	return rows, nil
}

func (s *service) XYZReport(ctx context.Context) ([]XYZRow, error) {
	products, lines, now, err := s.load(ctx, XYZWindowMonths)
	if err != nil {
		return nil, err
	}
	demand := monthlyDemand(products, lines, now, XYZWindowMonths)
	inputs := make([]ProductDemand, 0, len(products))
	for _, p := range products {
		inputs = append(inputs, ProductDemand{ProductID: p.ID, Monthly: demand[p.ID]})
	}

	names := labels(products)
	results := XYZ(inputs)
	rows := make([]XYZRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, XYZRow{XYZResult: r, ProductLabel: names[r.ProductID], Monthly: demand[r.ProductID]})
	}
	return rows, nil
}

func (s *service) ForecastReport(ctx context.Context, productID uuid.UUID) (*ForecastRow, error) {
	products, lines, now, err := s.load(ctx, ForecastWindowMonths)
	if err != nil {
		return nil, err
	}
	var product *models.Product
	for i := range products {
		if products[i].ID == productID {
			product = &products[i]
			break
		}
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	history := monthlyDemand([]models.Product{*product}, lines, now, ForecastWindowMonths)[productID]
	return &ForecastRow{
		ForecastResult: Forecast(history),
		ProductLabel:   ProductLabel{SKU: product.SKU, Name: product.Name},
		ProductID:      productID,
		History:        history,
	}, nil
}

func (s *service) CohortReport(ctx context.Context) (*CohortReport, error) {
	customers, err := s.repo.Customers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customers")
	}
	lines, err := s.repo.SaleLines(ctx, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales")
	}

	byOrder := make(map[uuid.UUID]*OrderSummary)
	var order []uuid.UUID
	for _, line := range lines {
		summary, ok := byOrder[line.OrderID]
		if !ok {
			summary = &OrderSummary{CustomerID: line.CustomerID, CreatedAt: line.CreatedAt, Total: decimal.Zero}
			byOrder[line.OrderID] = summary
			order = append(order, line.OrderID)
		}
		summary.Total = summary.Total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	summaries := make([]OrderSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, *byOrder[id])
	}
	refs := make([]CustomerRef, 0, len(customers))
	for _, c := range customers {
		refs = append(refs, CustomerRef{ID: c.ID, Name: c.Name})
	}

	cohorts := Cohorts(refs, summaries, s.now().UTC())
	return &CohortReport{Customers: cohorts, Counts: SegmentCounts(cohorts)}, nil
}

func (s *service) Valuation(ctx context.Context) (*Valuation, error) {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	v := &Valuation{CostValue: decimal.Zero, RetailValue: decimal.Zero}
	for _, p := range products {
		units := decimal.NewFromInt(int64(p.Stock))
		v.Products++
		v.Units += p.Stock
		v.ReservedUnits += p.ReservedStock
		v.CostValue = v.CostValue.Add(p.CostPrice.Mul(units))
		v.RetailValue = v.RetailValue.Add(p.SellingPrice.Mul(units))
	}
	v.PotentialProfit = v.RetailValue.Sub(v.CostValue)
	return v, nil
}
