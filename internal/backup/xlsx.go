package backup

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	pkgerrors "github.com/angelmondragon/stockroom/pkg/errors"
)

const productsSheet = "Products"

var productColumns = []string{
	"SKU", "Name", "Unit", "Stock", "Reserved", "Available",
	"Minimum", "Maximum", "Cost price", "Selling price", "Stock value",
}

// ExportXLSX writes the product catalogue as a single-sheet workbook.
func (s *service) ExportXLSX(ctx context.Context, w io.Writer) error {
	products, err := s.repo.Products(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	file := excelize.NewFile()
	defer file.Close()
	if err := file.SetSheetName(file.GetSheetName(0), productsSheet); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "name sheet")
	}

	header := make([]any, len(productColumns))
	for i, col := range productColumns {
		header[i] = col
	}
	if err := file.SetSheetRow(productsSheet, "A1", &header); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write header")
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(productColumns))
		_ = file.SetCellStyle(productsSheet, "A1", lastCol+"1", bold)
	}

	for i, p := range products {
		cost, _ := p.CostPrice.Float64()
		selling, _ := p.SellingPrice.Float64()
		value, _ := p.CostPrice.Mul(decimal.NewFromInt(int64(p.Stock))).Float64()
		row := []any{
			p.SKU, p.Name, p.Unit, p.Stock, p.ReservedStock, p.AvailableStock,
			p.MinimumStock, p.MaximumStock, cost, selling, value,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve cell")
		}
		if err := file.SetSheetRow(productsSheet, cell, &row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("write product %s", p.SKU))
		}
	}

	if err := file.Write(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write workbook")
	}
	return nil
}
