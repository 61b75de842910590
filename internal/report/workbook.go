package report

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	milkSheet     = "Milk"
	salesSheet    = "Sales"
	expensesSheet = "Expenses"
)

// MonthlyWorkbook renders the month's profit and loss, milk, sales and
// expense reports as one spreadsheet, a sheet each. The caller closes it.
func (e *Engine) MonthlyWorkbook(ctx context.Context, userID string, year, month int) (*excelize.File, error) {
	pl, err := e.MonthlyProfitLoss(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	milk, err := e.MonthlyMilkReport(ctx, userID, year, month)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sales, err := e.MonthlySalesReport(ctx, userID, year, month)
	if err != nil {
		return nil, errors.Trace(err)
	}
	expenses, err := e.MonthlyExpenseReport(ctx, userID, year, month)
	if err != nil {
		return nil, errors.Trace(err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		_ = f.Close()
		return nil, errors.Trace(err)
	}
	w := sheetWriter{f: f}

	w.sheet(summarySheet)
	w.row("Period", fmt.Sprintf("%s %d", pl.MonthName, pl.Year))
	w.row("Total sales", num(pl.TotalSales))
	w.row("Total expenses", num(pl.TotalExpenses))
	w.row("Profit / loss", num(pl.ProfitLoss))
	w.row("Milk produced (L)", num(milk.Total))

	w.sheet(milkSheet)
	w.row("Date", "Total (L)", "Records")
	for _, d := range milk.Days {
		w.row(d.Date.String(), num(d.TotalQuantity), d.RecordCount)
	}
	w.row("Total", num(milk.Total))
	w.row("Daily average", num(milk.AverageDaily))

	w.sheet(salesSheet)
	w.row("Date", "Quantity (L)", "Amount", "Sales")
	for _, d := range sales.Days {
		w.row(d.Date.String(), num(d.TotalQuantity), num(d.TotalAmount), d.SaleCount)
	}
	w.row("Total", num(sales.TotalQuantity), num(sales.TotalAmount))
	w.row("Daily average", "", num(sales.AverageDaily))

	w.sheet(expensesSheet)
	w.row("Category", "Amount", "Expenses")
	for _, cat := range expenses.Categories {
		w.row(cat.CategoryName, num(cat.TotalAmount), cat.ExpenseCount)
	}
	w.row("Total", num(expenses.TotalAmount))

	if w.err != nil {
		_ = f.Close()
		return nil, errors.Annotate(w.err, "building workbook")
	}
	return f, nil
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// sheetWriter appends rows to the current sheet and keeps the first error.
type sheetWriter struct {
	f    *excelize.File
	name string
	next int
	err  error
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil {
		return
	}
	if idx, _ := w.f.GetSheetIndex(name); idx < 0 {
		_, w.err = w.f.NewSheet(name)
	}
	w.name, w.next = name, 1
	if w.err == nil {
		w.err = w.f.SetColWidth(name, "A", "D", 16)
	}
}

func (w *sheetWriter) row(values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.name, cell, &values)
	w.next++
}
