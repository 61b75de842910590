// Package dashboard serves the farm overview and the profit and loss reports.
package dashboard

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"

	"gaughar-backend/internal/auth"
	"gaughar-backend/internal/report"
	"gaughar-backend/internal/web"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/dashboard
func DashboardHandler(reports *report.Engine, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		snap, err := reports.Dashboard(c.UserContext(), userID, web.Today(loc))
		if err != nil {
			return err
		}
		return c.JSON(snap)
	}
}

// GET /api/dashboard/profit-loss?year=2024&month=3
// Missing parameters default to the current month.
func ProfitLossHandler(reports *report.Engine, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		year, month, err := web.YearMonthQuery(c, loc)
		if err != nil {
			return err
		}
		pl, err := reports.MonthlyProfitLoss(c.UserContext(), userID, year, month)
		if err != nil {
			return err
		}
		return c.JSON(pl)
	}
}

// GET /api/dashboard/yearly?year=2024
func YearlyReportHandler(reports *report.Engine, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		year, err := web.YearQuery(c, loc)
		if err != nil {
			return err
		}
		rep, err := reports.YearlyReport(c.UserContext(), userID, year)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	}
}

// GET /api/dashboard/export?year=2024&month=3
func ExportMonthHandler(reports *report.Engine, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		year, month, err := web.YearMonthQuery(c, loc)
		if err != nil {
			return err
		}
		f, err := reports.MonthlyWorkbook(c.UserContext(), userID, year, month)
		if err != nil {
			return err
		}
		defer f.Close()

		buf, err := f.WriteToBuffer()
		if err != nil {
			return errors.Annotate(err, "writing workbook")
		}
		c.Attachment(fmt.Sprintf("gaughar-%04d-%02d.xlsx", year, month))
		c.Set(fiber.HeaderContentType, xlsxContentType)
		return c.Send(buf.Bytes())
	}
}
