package report_test

import (
	"context"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"gaughar-backend/internal/apperr"
)

func (s *engineSuite) TestMonthlyWorkbook(c *gc.C) {
	cow := s.AddCow(c, s.alice, "A-1")
	s.addMilk(c, s.alice, cow.ID, march(1), "10", "8.5")
	s.addSale(c, s.alice, march(1), "100", "30")
	s.addSale(c, s.alice, march(31), "50", "40")
	s.addExpense(c, s.alice, march(2), "Fodder", "2000")
	s.addExpense(c, s.alice, march(20), "Medicine", "1200")

	f, err := s.engine.MonthlyWorkbook(context.Background(), s.alice, 2024, 3)
	c.Assert(err, jc.ErrorIsNil)
	defer f.Close()

	c.Check(f.GetSheetList(), jc.DeepEquals, []string{"Summary", "Milk", "Sales", "Expenses"})

	summary, err := f.GetRows("Summary")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(summary, jc.DeepEquals, [][]string{
		{"Period", "March 2024"},
		{"Total sales", "5000"},
		{"Total expenses", "3200"},
		{"Profit / loss", "1800"},
		{"Milk produced (L)", "18.5"},
	})

	milk, err := f.GetRows("Milk")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(milk, gc.HasLen, 4)
	c.Check(milk[1], jc.DeepEquals, []string{"2024-03-01", "18.5", "1"})

	expenses, err := f.GetRows("Expenses")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(expenses, gc.HasLen, 4)
	c.Check(expenses[1][0], gc.Equals, "Fodder")
	c.Check(expenses[3], jc.DeepEquals, []string{"Total", "3200"})
}

func (s *engineSuite) TestMonthlyWorkbookRejectsBadMonth(c *gc.C) {
	_, err := s.engine.MonthlyWorkbook(context.Background(), s.alice, 2024, 0)
	c.Check(err, jc.ErrorIs, apperr.NotValid)
}
