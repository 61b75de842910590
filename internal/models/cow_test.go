package models_test

import (
	"time"

	jc "github.com/juju/testing/checkers"
	"github.com/shopspring/decimal"
	gc "gopkg.in/check.v1"

	"gaughar-backend/internal/models"
)

type cowSuite struct{}

var _ = gc.Suite(&cowSuite{})

func (s *cowSuite) TestAgeBeforeAndOnBirthday(c *gc.C) {
	cow := models.Cow{DateOfBirth: models.DateOf(2020, time.March, 15)}
	c.Check(cow.Age(models.DateOf(2024, time.March, 14)), gc.Equals, 3)
	c.Check(cow.Age(models.DateOf(2024, time.March, 15)), gc.Equals, 4)
	c.Check(cow.Age(models.DateOf(2024, time.February, 20)), gc.Equals, 3)
	c.Check(cow.Age(models.DateOf(2019, time.January, 1)), gc.Equals, 0)
}

func (s *cowSuite) TestExpectedDelivery(c *gc.C) {
	cow := models.Cow{
		IsPregnant:    true,
		PregnancyDate: models.DateOf(2024, time.January, 1).Ptr(),
	}
	cow.DeriveExpectedDelivery()
	c.Assert(cow.ExpectedDeliveryDate, gc.NotNil)
	c.Check(cow.ExpectedDeliveryDate.String(), gc.Equals, "2024-10-08")

	cow.IsPregnant = false
	cow.DeriveExpectedDelivery()
	c.Check(cow.ExpectedDeliveryDate, gc.IsNil)
}

func (s *cowSuite) TestExpectedDeliveryNeedsPregnancyDate(c *gc.C) {
	due := models.DateOf(2024, time.October, 8)
	cow := models.Cow{IsPregnant: true, ExpectedDeliveryDate: &due}
	cow.DeriveExpectedDelivery()
	c.Check(cow.ExpectedDeliveryDate, gc.IsNil)
}

func (s *cowSuite) TestExpectedDeliveryClampsMonthEnd(c *gc.C) {
	cow := models.Cow{
		IsPregnant:    true,
		PregnancyDate: models.DateOf(2023, time.May, 31).Ptr(),
	}
	cow.DeriveExpectedDelivery()
	c.Check(cow.ExpectedDeliveryDate.String(), gc.Equals, "2024-03-07")
}

func (s *cowSuite) TestDefaultsAndEnums(c *gc.C) {
	var cow models.Cow
	cow.ApplyDefaults()
	c.Check(cow.HealthStatus, gc.Equals, models.HealthHealthy)
	c.Check(cow.Status, gc.Equals, models.CowActive)

	c.Check(models.HealthUnderTreatment.Valid(), jc.IsTrue)
	c.Check(models.HealthStatus("healthy").Valid(), jc.IsFalse)
	c.Check(models.CowPregnant.Valid(), jc.IsTrue)
	c.Check(models.BuyerType("Wholesale").Valid(), jc.IsFalse)
}

func (s *cowSuite) TestPersistedTotals(c *gc.C) {
	rec := models.MilkRecord{
		MorningQuantity: decimal.RequireFromString("12.25"),
		EveningQuantity: decimal.RequireFromString("10.5"),
	}
	rec.ComputeTotal()
	c.Check(rec.TotalQuantity.String(), gc.Equals, "22.75")

	sale := models.MilkSale{
		Quantity:     decimal.RequireFromString("12.5"),
		RatePerLiter: decimal.RequireFromString("65.333"),
	}
	sale.ApplyDefaults()
	sale.ComputeTotal()
	c.Check(sale.TotalAmount.String(), gc.Equals, "816.66")
	c.Check(sale.BuyerType, gc.Equals, models.BuyerLocal)
}
