package milk

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

const entityType = "milk_record"

// ListResponse is the milk record list with totals over the same filter.
type ListResponse struct {
	Items  []models.MilkRecord `json:"items"`
	Totals Totals              `json:"totals"`
}

// GET /api/milk-records?from=&to=&cow_id=
func ListMilkRecordsHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		var f Filter
		if f.From, err = web.OptionalDateQuery(c, "from"); err != nil {
			return err
		}
		if f.To, err = web.OptionalDateQuery(c, "to"); err != nil {
			return err
		}
		if f.CowID, err = web.OptionalUintQuery(c, "cow_id"); err != nil {
			return err
		}

		records, err := repo.List(c.UserContext(), userID, f)
		if err != nil {
			return err
		}
		totals, err := repo.Totals(c.UserContext(), userID, f)
		if err != nil {
			return err
		}
		return c.JSON(ListResponse{Items: records, Totals: totals})
	}
}

// GET /api/milk-records/daily-summary?date=2024-03-01
func DailySummaryHandler(reports *report.Engine, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		day, err := web.DateQuery(c, "date", loc)
		if err != nil {
			return err
		}
		summary, err := reports.DailyMilkSummary(c.UserContext(), userID, day)
		if err != nil {
			return err
		}
		return c.JSON(summary)
	}
}

// GET /api/milk-records/monthly-report?year=2024&month=3
func MonthlyReportHandler(reports *report.Engine, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		year, month, err := web.YearMonthQuery(c, loc)
		if err != nil {
			return err
		}
		rep, err := reports.MonthlyMilkReport(c.UserContext(), userID, year, month)
		if err != nil {
			return err
		}
		return c.JSON(rep)
	}
}

// GET /api/milk-records/:id
func GetMilkRecordHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		rec, err := repo.Get(c.UserContext(), userID, id)
		if err != nil {
			return err
		}
		return c.JSON(rec)
	}
}

func describe(verb string, rec *models.MilkRecord) string {
	tag := fmt.Sprintf("#%d", rec.CowID)
	if rec.Cow != nil {
		tag = rec.Cow.TagNumber
	}
	return fmt.Sprintf("Milk record %s: cow %s on %s, %s L", verb, tag, rec.Date, rec.TotalQuantity)
}

// POST /api/milk-records
func CreateMilkRecordHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		var body models.MilkRecord
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		rec, err := repo.Create(c.UserContext(), userID, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    rec.ID,
			Action:      models.AuditActionCreate,
			Description: describe("added", rec),
			After:       rec,
		})
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// PUT /api/milk-records/:id
func UpdateMilkRecordHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body models.MilkRecord
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		// A row the caller cannot see is left to Update, which tells
		// NotFound from Forbidden.
		before, err := repo.Get(c.UserContext(), userID, id)
		if err != nil && !errors.Is(err, apperr.NotFound) {
			return err
		}
		rec, err := repo.Update(c.UserContext(), userID, id, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    rec.ID,
			Action:      models.AuditActionUpdate,
			Description: describe("updated", rec),
			Before:      before,
			After:       rec,
		})
		return c.JSON(rec)
	}
}

// DELETE /api/milk-records/:id
func DeleteMilkRecordHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}

		rec, err := repo.Delete(c.UserContext(), userID, id)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: describe("deleted", rec),
			Before:      rec,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
