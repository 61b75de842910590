package web

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/models"
)

// ParseBody decodes the JSON body into dest.
func ParseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		return apperr.FormError("Request body is not valid JSON: " + err.Error())
	}
	return nil
}

// IDParam parses a positive integer path parameter.
func IDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.FieldError(name, "Must be a positive integer.")
	}
	return uint(id), nil
}

// OptionalUintQuery parses an optional positive integer query parameter.
func OptionalUintQuery(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return nil, apperr.FieldError(name, "Must be a positive integer.")
	}
	id := uint(v)
	return &id, nil
}

// OptionalDateQuery parses an optional YYYY-MM-DD query parameter.
func OptionalDateQuery(c *fiber.Ctx, name string) (*models.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, apperr.FieldError(name, "Date must be formatted as YYYY-MM-DD.")
	}
	return &d, nil
}

// DateQuery parses a YYYY-MM-DD query parameter, defaulting to today.
func DateQuery(c *fiber.Ctx, name string, loc *time.Location) (models.Date, error) {
	d, err := OptionalDateQuery(c, name)
	if err != nil {
		return models.Date{}, err
	}
	if d == nil {
		return Today(loc), nil
	}
	return *d, nil
}

// YearMonthQuery reads ?year=&month=, defaulting either to the current one.
// Range checks are left to the report engine.
func YearMonthQuery(c *fiber.Ctx, loc *time.Location) (int, int, error) {
	today := Today(loc)
	year, err := intQuery(c, "year", today.Year())
	if err != nil {
		return 0, 0, err
	}
	month, err := intQuery(c, "month", int(today.Month()))
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// YearQuery reads ?year=, defaulting to the current year.
func YearQuery(c *fiber.Ctx, loc *time.Location) (int, error) {
	return intQuery(c, "year", Today(loc).Year())
}

func intQuery(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.FieldError(name, "Must be a whole number.")
	}
	return v, nil
}

// Today is the current calendar day in loc.
func Today(loc *time.Location) models.Date {
	if loc == nil {
		loc = time.UTC
	}
	return models.NewDate(time.Now().In(loc))
}
