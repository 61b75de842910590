package database_test

import (
	"context"
	stdtesting "testing"
	"time"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	"github.com/shopspring/decimal"
	gc "gopkg.in/check.v1"

	"gaughar-backend/internal/config"
	"gaughar-backend/internal/database"
	databasetesting "gaughar-backend/internal/database/testing"
	"gaughar-backend/internal/models"
	"gaughar-backend/internal/store"
)

func TestPackage(t *stdtesting.T) {
	gc.TestingT(t)
}

type dbSuite struct {
	databasetesting.DBSuite
}

var _ = gc.Suite(&dbSuite{})

func (s *dbSuite) TestSeedIsIdempotentAndOrdered(c *gc.C) {
	created, err := database.SeedCategories(context.Background(), s.DB)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(created, gc.Equals, 0)

	var cats []models.ExpenseCategory
	c.Assert(s.DB.Order("id asc").Find(&cats).Error, jc.ErrorIsNil)
	c.Assert(cats, gc.HasLen, 8)

	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = cat.Name
	}
	c.Check(names, jc.DeepEquals, []string{
		"Fodder", "Medicine", "Staff Salary", "Electricity",
		"Water", "Maintenance", "Transport", "Others",
	})
	c.Check(cats[0].Description, gc.Equals, "Animal feed and grass")
}

func (s *dbSuite) TestSeedFillsOnlyMissing(c *gc.C) {
	c.Assert(s.DB.Where("name = ?", "Water").Delete(&models.ExpenseCategory{}).Error, jc.ErrorIsNil)

	created, err := database.SeedCategories(context.Background(), s.DB)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(created, gc.Equals, 1)

	var count int64
	c.Assert(s.DB.Model(&models.ExpenseCategory{}).Count(&count).Error, jc.ErrorIsNil)
	c.Check(count, gc.Equals, int64(8))
}

func (s *dbSuite) TestForeignKeysEnforced(c *gc.C) {
	userID := s.AddUser(c, "a@example.com")
	cow := s.AddCow(c, userID, "T-1")

	rec := models.MilkRecord{
		UserID:          userID,
		CowID:           cow.ID,
		Date:            models.DateOf(2024, time.March, 1),
		MorningQuantity: decimal.RequireFromString("5"),
		EveningQuantity: decimal.RequireFromString("4"),
	}
	rec.ComputeTotal()
	c.Assert(s.DB.Create(&rec).Error, jc.ErrorIsNil)

	err := s.DB.Delete(&models.Cow{}, cow.ID).Error
	c.Check(store.IsForeignKey(err), jc.IsTrue)

	orphan := rec
	orphan.ID = 0
	orphan.CowID = 9999
	err = s.DB.Create(&orphan).Error
	c.Check(store.IsForeignKey(err), jc.IsTrue)
}

func (s *dbSuite) TestUniqueMilkPerCowPerDay(c *gc.C) {
	userID := s.AddUser(c, "a@example.com")
	cow := s.AddCow(c, userID, "T-1")

	rec := models.MilkRecord{UserID: userID, CowID: cow.ID, Date: models.DateOf(2024, time.March, 1)}
	c.Assert(s.DB.Create(&rec).Error, jc.ErrorIsNil)

	dup := models.MilkRecord{UserID: userID, CowID: cow.ID, Date: models.DateOf(2024, time.March, 1)}
	err := s.DB.Create(&dup).Error
	c.Check(store.IsDuplicate(err), jc.IsTrue)
}

func (s *dbSuite) TestDateRoundTrip(c *gc.C) {
	userID := s.AddUser(c, "a@example.com")
	cow := s.AddCow(c, userID, "T-1")

	var got models.Cow
	c.Assert(s.DB.First(&got, cow.ID).Error, jc.ErrorIsNil)
	c.Check(got.DateOfBirth.String(), gc.Equals, "2020-01-01")
	c.Check(got.PregnancyDate, gc.IsNil)
	c.Check(got.Version, gc.Equals, uint(1))
}

func (s *dbSuite) TestOpenRejectsUnknownDriver(c *gc.C) {
	_, err := database.Open(config.DatabaseConfig{Driver: "mysql"}, nil)
	c.Check(err, jc.ErrorIs, errors.NotSupported)
}
