package audit

import (
	"github.com/gofiber/fiber/v2"

	"gaughar-backend/internal/auth"
	"gaughar-backend/internal/web"
)

// GET /api/audit-logs?entity_type=cow&entity_id=1&limit=50
func ListAuditLogsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := auth.UserID(c)
		if err != nil {
			return err
		}
		entityID, err := web.OptionalUintQuery(c, "entity_id")
		if err != nil {
			return err
		}

		logs, err := svc.List(c.UserContext(), userID, ListFilter{
			EntityType: c.Query("entity_type"),
			EntityID:   entityID,
			Limit:      c.QueryInt("limit", 0),
		})
		if err != nil {
			return err
		}
		return c.JSON(logs)
	}
}
