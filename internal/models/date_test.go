package models_test

import (
	"encoding/json"
	"time"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"gaughar-backend/internal/models"
)

type dateSuite struct{}

var _ = gc.Suite(&dateSuite{})

func (s *dateSuite) TestNewDateTruncatesToDay(c *gc.C) {
	kathmandu := time.FixedZone("NPT", 5*3600+45*60)
	d := models.NewDate(time.Date(2024, time.March, 14, 23, 59, 0, 0, kathmandu))
	c.Check(d.String(), gc.Equals, "2024-03-14")
	c.Check(d.Location(), gc.Equals, time.UTC)
	c.Check(d.Hour(), gc.Equals, 0)
}

func (s *dateSuite) TestMonthRangeHandlesLeapYears(c *gc.C) {
	first, last := models.MonthRange(2024, time.February)
	c.Check(first.String(), gc.Equals, "2024-02-01")
	c.Check(last.String(), gc.Equals, "2024-02-29")

	_, last = models.MonthRange(2023, time.February)
	c.Check(last.String(), gc.Equals, "2023-02-28")

	_, last = models.MonthRange(2024, time.December)
	c.Check(last.String(), gc.Equals, "2024-12-31")
}

func (s *dateSuite) TestAddMonthsClampsDay(c *gc.C) {
	c.Check(models.DateOf(2024, time.January, 31).AddMonthsClamped(1).String(), gc.Equals, "2024-02-29")
	c.Check(models.DateOf(2023, time.May, 31).AddMonthsClamped(9).String(), gc.Equals, "2024-02-29")
	c.Check(models.DateOf(2024, time.April, 30).AddMonthsClamped(9).String(), gc.Equals, "2025-01-30")
}

func (s *dateSuite) TestJSON(c *gc.C) {
	type payload struct {
		Day  models.Date  `json:"day"`
		Next *models.Date `json:"next"`
	}

	var p payload
	err := json.Unmarshal([]byte(`{"day":"2024-10-08","next":null}`), &p)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(p.Day.Equal(models.DateOf(2024, time.October, 8)), jc.IsTrue)
	c.Check(p.Next, gc.IsNil)

	out, err := json.Marshal(p)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(out), gc.Equals, `{"day":"2024-10-08","next":null}`)

	err = json.Unmarshal([]byte(`{"day":"08/10/2024"}`), &p)
	c.Check(err, gc.ErrorMatches, `date "08/10/2024" must be formatted as YYYY-MM-DD`)
}

func (s *dateSuite) TestScan(c *gc.C) {
	var d models.Date
	c.Assert(d.Scan("2024-03-01"), jc.ErrorIsNil)
	c.Check(d.String(), gc.Equals, "2024-03-01")

	c.Assert(d.Scan([]byte("2024-03-02 00:00:00+00:00")), jc.ErrorIsNil)
	c.Check(d.String(), gc.Equals, "2024-03-02")

	c.Assert(d.Scan(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)), jc.ErrorIsNil)
	c.Check(d.String(), gc.Equals, "2024-03-03")

	c.Assert(d.Scan(nil), jc.ErrorIsNil)
	c.Check(d.IsZero(), jc.IsTrue)

	c.Check(d.Scan(42), gc.ErrorMatches, "cannot scan int into Date")
}

func (s *dateSuite) TestValueBindsDayString(c *gc.C) {
	v, err := models.DateOf(2024, time.March, 1).Value()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v, gc.Equals, "2024-03-01")

	v, err = models.Date{}.Value()
	c.Assert(err, jc.ErrorIsNil)
	c.Check(v, gc.IsNil)
}
