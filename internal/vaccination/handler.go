package vaccination

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/juju/errors"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/audit"
	"gaughar-backend/internal/auth"
	"gaughar-backend/internal/models"
	"gaughar-backend/internal/web"
)

const entityType = "vaccination"

// GET /api/vaccinations?cow_id=&from=&to=&due_before=
func ListVaccinationsHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		var f Filter
		if f.CowID, err = web.OptionalUintQuery(c, "cow_id"); err != nil {
			return err
		}
		if f.From, err = web.OptionalDateQuery(c, "from"); err != nil {
			return err
		}
		if f.To, err = web.OptionalDateQuery(c, "to"); err != nil {
			return err
		}
		if f.DueBefore, err = web.OptionalDateQuery(c, "due_before"); err != nil {
			return err
		}

		out, err := repo.List(c.UserContext(), userID, f)
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

// GET /api/vaccinations/:id
func GetVaccinationHandler(repo *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		v, err := repo.Get(c.UserContext(), userID, id)
		if err != nil {
			return err
		}
		return c.JSON(v)
	}
}

func describe(verb string, v *models.Vaccination) string {
	return fmt.Sprintf("Vaccination %s: %s for cow #%d on %s", verb, v.VaccineName, v.CowID, v.VaccinationDate)
}

// POST /api/vaccinations
func CreateVaccinationHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		var body models.Vaccination
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		v, err := repo.Create(c.UserContext(), userID, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    v.ID,
			Action:      models.AuditActionCreate,
			Description: describe("added", v),
			After:       v,
		})
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}

// PUT /api/vaccinations/:id
func UpdateVaccinationHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}
		var body models.Vaccination
		if err := web.ParseBody(c, &body); err != nil {
			return err
		}

		// A row the caller cannot see is left to Update, which tells
		// NotFound from Forbidden.
		before, err := repo.Get(c.UserContext(), userID, id)
		if err != nil && !errors.Is(err, apperr.NotFound) {
			return err
		}
		v, err := repo.Update(c.UserContext(), userID, id, &body)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    v.ID,
			Action:      models.AuditActionUpdate,
			Description: describe("updated", v),
			Before:      before,
			After:       v,
		})
		return c.JSON(v)
	}
}

// DELETE /api/vaccinations/:id
func DeleteVaccinationHandler(repo *Repository, auditSvc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		id, err := web.IDParam(c, "id")
		if err != nil {
			return err
		}

		v, err := repo.Delete(c.UserContext(), userID, id)
		if err != nil {
			return err
		}

		auditSvc.Record(c.UserContext(), audit.LogOptions{
			UserID:      userID,
			EntityType:  entityType,
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: describe("deleted", v),
			Before:      v,
		})
		return c.SendStatus(fiber.StatusNoContent)
	}
}
