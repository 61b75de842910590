package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and query-string format of calendar days.
const DateLayout = "2006-01-02"

// Date is a calendar day. It is always normalised to UTC midnight so that
// equality and range comparisons behave the same on every database.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day (in t's own location).
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf builds a Date from its parts.
func DateOf(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

// MonthRange returns the first and last calendar day of the month.
func MonthRange(year int, month time.Month) (Date, Date) {
	first := DateOf(year, month, 1)
	return first, first.AddDays(0, 1, -1)
}

// AddDays is time.AddDate for Dates.
func (d Date) AddDays(years, months, days int) Date {
	return NewDate(d.Time.AddDate(years, months, days))
}

// AddMonthsClamped adds n months keeping the day of month, clamped to the
// last day of the target month (Jan 31 + 1 month is Feb 28/29, not Mar 2/3).
func (d Date) AddMonthsClamped(n int) Date {
	first := DateOf(d.Year(), d.Month()+time.Month(n), 1)
	last := first.AddDays(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return DateOf(first.Year(), first.Month(), day)
}

func (d Date) Equal(o Date) bool {
	return d.Time.Equal(o.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Ptr returns a pointer to a copy of d.
func (d Date) Ptr() *Date {
	return &d
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		*d = NewDate(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q must be formatted as YYYY-MM-DD", s)
	}
	*d = NewDate(t)
	return nil
}

// GormDataType maps Date to a SQL date column.
func (Date) GormDataType() string {
	return "date"
}

// Value binds the day as a YYYY-MM-DD string so that a date column compares
// against it without any time zone conversion.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateLayout), nil
}

var scanLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	DateLayout,
}

func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) scanString(s string) error {
	for _, layout := range scanLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = NewDate(t)
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as a date", s)
}
