package sales

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

const entityType = "milk_sale"

// ListResponse is the sale list with totals over the same filter.
type ListResponse struct {
	Items  []models.MilkSale `json:"items"`
	Totals Totals            `json:"totals"`
}

// GET /api/milk-sales?from=&to=&buyer_type=&search=
func ListMilkSalesHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		f := Filter{
			BuyerType: models.BuyerType(c.Query("buyer_type")),
			Search:    c.Query("search"),
		}
		if f.BuyerType != "" && !f.BuyerType.Valid() {
			return apperr.FieldError("buyer_type", fmt.Sprintf("Buyer type %q is not a valid choice.", f.BuyerType))
		}
		if f.From, err = web.OptionalDateQuery(c, "from"); err != nil {
			return err
		}
		if f.To, err = web.OptionalDateQuery(c, "to"); err != nil {
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

// GET /api/milk-sales/summary?year=2024&month=3
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
		rep, err := reports.MonthlySalesReport(c.UserContext(), userID, year, month)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	}
}

// GET /api/milk-sales/:id
func GetMilkSaleHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		sale, err := repo.Get(c.UserContext(), userID, id)
		if err != nil {
			return err
		}
		return c.JSON(sale)
	}
}

func describe(verb string, sale *models.MilkSale) string {
	return fmt.Sprintf("Milk sale %s: %s L to %s, %s", verb, sale.Quantity, sale.BuyerName, sale.TotalAmount)
}

// POST /api/milk-sales
func CreateMilkSaleHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		var body models.MilkSale
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		sale, err := repo.Create(c.UserContext(), userID, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: describe("added", sale),
			After:       sale,
		})
		return c.Status(fiber.StatusCreated).JSON(sale)
	}
}

// PUT /api/milk-sales/:id
func UpdateMilkSaleHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body models.MilkSale
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		// A row the caller cannot see is left to Update, which tells
		// NotFound from Forbidden.
		before, err := repo.Get(c.UserContext(), userID, id)
		if err != nil && !errors.Is(err, apperr.NotFound) {
			return err
		}
		sale, err := repo.Update(c.UserContext(), userID, id, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    sale.ID,
			Action:      models.AuditActionUpdate,
			Description: describe("updated", sale),
			Before:      before,
			After:       sale,
		})
		return c.JSON(sale)
	}
}

// DELETE /api/milk-sales/:id
func DeleteMilkSaleHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}

		sale, err := repo.Delete(c.UserContext(), userID, id)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: describe("deleted", sale),
			Before:      sale,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
