package validation_test

import (
	stdtesting "testing"
	"time"

	jc "github.com/juju/testing/checkers"
	"github.com/shopspring/decimal"
	gc "gopkg.in/check.v1"

	"gaughar-backend/internal/apperr"
	"gaughar-backend/internal/models"
	"gaughar-backend/internal/validation"
)

func TestPackage(t *stdtesting.T) {
	gc.TestingT(t)
}

type validationSuite struct {
	v *validation.Validator
}

var _ = gc.Suite(&validationSuite{})

func (s *validationSuite) SetUpSuite(c *gc.C) {
	s.v = validation.New()
}

func validCow() *models.Cow {
	cow := &models.Cow{
		TagNumber:   "T-001",
		Name:        "Laxmi",
		Breed:       "Jersey",
		DateOfBirth: models.DateOf(2020, time.March, 15),
	}
	cow.ApplyDefaults()
	return cow
}

func (s *validationSuite) TestValidCow(c *gc.C) {
	c.Assert(s.v.Struct(validCow()), jc.ErrorIsNil)
}

func (s *validationSuite) TestCollectsAllCowFieldErrors(c *gc.C) {
	cow := &models.Cow{HealthStatus: "Grumpy", Status: models.CowActive}

	err := s.v.Struct(cow)
	c.Assert(err, jc.ErrorIs, apperr.NotValid)

	verr, ok := apperr.AsValidation(err)
	c.Assert(ok, jc.IsTrue)
	c.Check(verr.Fields["tag_number"], jc.DeepEquals, []string{"Tag number is required."})
	c.Check(verr.Fields["name"], jc.DeepEquals, []string{"Name is required."})
	c.Check(verr.Fields["breed"], jc.DeepEquals, []string{"Breed is required."})
	c.Check(verr.Fields["date_of_birth"], jc.DeepEquals, []string{"Date of birth is required."})
	c.Check(verr.Fields["health_status"], jc.DeepEquals, []string{`Health status "Grumpy" is not a valid choice.`})
	c.Check(verr.Fields, gc.HasLen, 5)
}

func (s *validationSuite) TestNegativePurchasePrice(c *gc.C) {
	cow := validCow()
	price := decimal.RequireFromString("-1")
	cow.PurchasePrice = &price

	verr, ok := apperr.AsValidation(s.v.Struct(cow))
	c.Assert(ok, jc.IsTrue)
	c.Check(verr.Fields["purchase_price"], jc.DeepEquals, []string{"Purchase price must be at least 0."})
}

func (s *validationSuite) TestMilkQuantityBounds(c *gc.C) {
	rec := &models.MilkRecord{
		CowID:           1,
		Date:            models.DateOf(2024, time.March, 1),
		MorningQuantity: decimal.RequireFromString("50.01"),
		EveningQuantity: decimal.RequireFromString("-0.5"),
	}
	verr, ok := apperr.AsValidation(s.v.Struct(rec))
	c.Assert(ok, jc.IsTrue)
	c.Check(verr.Fields["morning_quantity"], jc.DeepEquals, []string{"Morning quantity must be at most 50."})
	c.Check(verr.Fields["evening_quantity"], jc.DeepEquals, []string{"Evening quantity must be at least 0."})

	rec.MorningQuantity = decimal.RequireFromString("50")
	rec.EveningQuantity = decimal.Zero
	c.Check(s.v.Struct(rec), jc.ErrorIsNil)
}

func (s *validationSuite) TestSaleRanges(c *gc.C) {
	sale := &models.MilkSale{
		SaleDate:     models.DateOf(2024, time.March, 1),
		BuyerName:    "Himalayan Dairy",
		BuyerType:    models.BuyerDairy,
		Quantity:     decimal.Zero,
		RatePerLiter: decimal.RequireFromString("0.5"),
	}
	verr, ok := apperr.AsValidation(s.v.Struct(sale))
	c.Assert(ok, jc.IsTrue)
	c.Check(verr.Fields["quantity"], jc.DeepEquals, []string{"Quantity must be greater than 0."})
	c.Check(verr.Fields["rate_per_liter"], jc.DeepEquals, []string{"Rate per liter must be at least 1."})
}

func (s *validationSuite) TestExpenseAmountMinimum(c *gc.C) {
	exp := &models.Expense{
		ExpenseDate:       models.DateOf(2024, time.March, 1),
		ExpenseCategoryID: 1,
		Description:       "Hay",
		Amount:            decimal.Zero,
	}
	verr, ok := apperr.AsValidation(s.v.Struct(exp))
	c.Assert(ok, jc.IsTrue)
	c.Check(verr.Fields["amount"], jc.DeepEquals, []string{"Amount must be at least 0.01."})

	exp.Amount = decimal.RequireFromString("0.01")
	c.Check(s.v.Struct(exp), jc.ErrorIsNil)
}

func (s *validationSuite) TestAtMostTwoDecimalPlaces(c *gc.C) {
	rec := &models.MilkRecord{
		CowID:           1,
		Date:            models.DateOf(2024, time.March, 1),
		MorningQuantity: decimal.RequireFromString("0.004"),
		EveningQuantity: decimal.RequireFromString("10.125"),
	}
	verr, ok := apperr.AsValidation(s.v.Struct(rec))
	c.Assert(ok, jc.IsTrue)
	c.Check(verr.Fields["morning_quantity"], jc.DeepEquals, []string{"Morning quantity must have at most 2 decimal places."})
	c.Check(verr.Fields["evening_quantity"], jc.DeepEquals, []string{"Evening quantity must have at most 2 decimal places."})

	rec.MorningQuantity = decimal.RequireFromString("0.01")
	rec.EveningQuantity = decimal.RequireFromString("10.10")
	c.Check(s.v.Struct(rec), jc.ErrorIsNil)

	sale := &models.MilkSale{
		SaleDate:     models.DateOf(2024, time.March, 1),
		BuyerName:    "Himalayan Dairy",
		BuyerType:    models.BuyerDairy,
		Quantity:     decimal.RequireFromString("0.004"),
		RatePerLiter: decimal.RequireFromString("60.005"),
	}
	verr, ok = apperr.AsValidation(s.v.Struct(sale))
	c.Assert(ok, jc.IsTrue)
	c.Check(verr.Fields["quantity"], jc.DeepEquals, []string{"Quantity must have at most 2 decimal places."})
	c.Check(verr.Fields["rate_per_liter"], jc.DeepEquals, []string{"Rate per liter must have at most 2 decimal places."})

	cow := validCow()
	price := decimal.RequireFromString("45000.999")
	cow.PurchasePrice = &price
	verr, ok = apperr.AsValidation(s.v.Struct(cow))
	c.Assert(ok, jc.IsTrue)
	c.Check(verr.Fields["purchase_price"], jc.DeepEquals, []string{"Purchase price must have at most 2 decimal places."})
}

func (s *validationSuite) TestDateNotBefore(c *gc.C) {
	verr := apperr.NewValidationError()
	given := models.DateOf(2024, time.March, 10)

	validation.DateNotBefore(verr, "next_due_date", nil, given, "vaccination date")
	validation.DateNotBefore(verr, "next_due_date", models.DateOf(2024, time.March, 10).Ptr(), given, "vaccination date")
	c.Check(verr.Empty(), jc.IsTrue)

	validation.DateNotBefore(verr, "next_due_date", models.DateOf(2024, time.March, 9).Ptr(), given, "vaccination date")
	c.Check(verr.Fields["next_due_date"], jc.DeepEquals, []string{"Next due date cannot be before vaccination date."})
}
