package cow

import (
	"fmt"
	"strconv"
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

const entityType = "cow"

// CowResponse adds the derived age to a stored cow.
type CowResponse struct {
	models.Cow
	Age int `json:"age"`
}

func toResponse(cow *models.Cow, today models.Date) CowResponse {
	return CowResponse{Cow: *cow, Age: cow.Age(today)}
}

func filterFromQuery(c *fiber.Ctx) (Filter, error) {
	f := Filter{
		Search:       c.Query("search"),
		Status:       models.CowStatus(c.Query("status")),
		HealthStatus: models.HealthStatus(c.Query("health_status")),
	}
	verr := apperr.NewValidationError()
	if f.Status != "" && !f.Status.Valid() {
		verr.AddField("status", fmt.Sprintf("Status %q is not a valid choice.", f.Status))
	}
	if f.HealthStatus != "" && !f.HealthStatus.Valid() {
		verr.AddField("health_status", fmt.Sprintf("Health status %q is not a valid choice.", f.HealthStatus))
	}
	if raw := c.Query("pregnant"); raw != "" {
		p, err := strconv.ParseBool(raw)
		if err != nil {
			verr.AddField("pregnant", "Must be true or false.")
		} else {
			f.Pregnant = &p
		}
	}
	return f, verr.OrNil()
}

// GET /api/cows?search=&status=&health_status=&pregnant=
func ListCowsHandler(repo *Repository, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		f, err := filterFromQuery(c)
		if err != nil {
			return err
		}

		cows, err := repo.List(c.UserContext(), userID, f)
		if err != nil {
			return err
		}
		today := web.Today(loc)
		res := make([]CowResponse, 0, len(cows))
		for i := range cows {
			res = append(res, toResponse(&cows[i], today))
		}
		return c.JSON(res)
	}
}

// GET /api/cows/active
func ListActiveCowsHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		cows, err := repo.ActiveCows(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(cows)
	}
}

// GET /api/cows/statistics
func StatisticsHandler(reports *report.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		stats, err := reports.CowStatistics(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}

// GET /api/cows/:id
func GetCowHandler(repo *Repository, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		cow, err := repo.Get(c.UserContext(), userID, id)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(cow, web.Today(loc)))
	}
}

// GET /api/cows/:id/performance
func PerformanceHandler(reports *report.Engine, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		perf, err := reports.CowPerformance(c.UserContext(), userID, id, web.Today(loc))
		if err != nil {
			return err
		}
		return c.JSON(perf)
	}
}

// POST /api/cows
func CreateCowHandler(repo *Repository, auditSvc *audit.Service, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		var body models.Cow
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		cow, err := repo.Create(c.UserContext(), userID, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    cow.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Cow added: %s (%s)", cow.TagNumber, cow.Name),
			After:       cow,
		})
		return c.Status(fiber.StatusCreated).JSON(toResponse(cow, web.Today(loc)))
	}
}

// PUT /api/cows/:id
func UpdateCowHandler(repo *Repository, auditSvc *audit.Service, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body models.Cow
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		// A row the caller cannot see is left to Update, which tells
		// NotFound from Forbidden.
		before, err := repo.Get(c.UserContext(), userID, id)
		if err != nil && !errors.Is(err, apperr.NotFound) {
			return err
		}
		cow, err := repo.Update(c.UserContext(), userID, id, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    cow.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Cow updated: %s (%s)", cow.TagNumber, cow.Name),
			Before:      before,
			After:       cow,
		})
		return c.JSON(toResponse(cow, web.Today(loc)))
	}
}

// DELETE /api/cows/:id
func DeleteCowHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}

		cow, err := repo.Delete(c.UserContext(), userID, id)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Cow deleted: %s (%s)", cow.TagNumber, cow.Name),
			Before:      cow,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
