package expense

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/audit"
	"gaughar-backend/internal/auth"
	"gaughar-backend/internal/models"
	"gaughar-backend/internal/report"
	"gaughar-backend/internal/web"
)

const entityType = "expense"

// ListResponse is the expense list with totals over the same filter.
type ListResponse struct {
	Items  []models.Expense `json:"items"`
	Totals Totals           `json:"totals"`
}

// GET /api/expense-categories
func ListCategoriesHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := repo.Categories(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(cats)
	}
}

// GET /api/expenses?from=&to=&category_id=&search=
func ListExpensesHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		f := Filter{Search: c.Query("search")}
		if f.From, err = web.OptionalDateQuery(c, "from"); err != nil {
			return err
		}
		if f.To, err = web.OptionalDateQuery(c, "to"); err != nil {
			return err
		}
		if f.CategoryID, err = web.OptionalUintQuery(c, "category_id"); err != nil {
			return err
		}

		out, err := repo.List(c.UserContext(), userID, f)
		if err != nil {
			return err
		}
		totals, err := repo.Totals(c.UserContext(), userID, f)
		if err != nil {
			return err
		}
		return c.JSON(ListResponse{Items: out, Totals: totals})
	}
}

// GET /api/expenses/summary?year=2024&month=3
func MonthlySummaryHandler(reports *report.Engine, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		year, month, err := web.YearMonthQuery(c, loc)
		if err != nil {
			return err
		}
		rep, err := reports.MonthlyExpenseReport(c.UserContext(), userID, year, month)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	}
}

// GET /api/expenses/:id
func GetExpenseHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		exp, err := repo.Get(c.UserContext(), userID, id)
		if err != nil {
			return err
		}
		return c.JSON(exp)
	}
}

func describe(verb string, exp *models.Expense) string {
	category := fmt.Sprintf("#%d", exp.ExpenseCategoryID)
	if exp.ExpenseCategory != nil {
		category = exp.ExpenseCategory.Name
	}
	return fmt.Sprintf("Expense %s: %s (%s) %s on %s", verb, exp.Description, category, exp.Amount, exp.ExpenseDate)
}

// POST /api/expenses
func CreateExpenseHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		var body models.Expense
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		exp, err := repo.Create(c.UserContext(), userID, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    exp.ID,
			Action:      models.AuditActionCreate,
			Description: describe("added", exp),
			After:       exp,
		})
		return c.Status(fiber.StatusCreated).JSON(exp)
	}
}

// PUT /api/expenses/:id
func UpdateExpenseHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body models.Expense
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		// A row the caller cannot see is left to Update, which tells
		// NotFound from Forbidden.
		before, err := repo.Get(c.UserContext(), userID, id)
		if err != nil && !errors.Is(err, apperr.NotFound) {
			return err
		}
		exp, err := repo.Update(c.UserContext(), userID, id, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    exp.ID,
			Action:      models.AuditActionUpdate,
			Description: describe("updated", exp),
			Before:      before,
			After:       exp,
		})
		return c.JSON(exp)
	}
}

// DELETE /api/expenses/:id
func DeleteExpenseHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}

		exp, err := repo.Delete(c.UserContext(), userID, id)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: describe("deleted", exp),
			Before:      exp,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
