package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type HealthStatus string

const (
	HealthHealthy        HealthStatus = "Healthy"
	HealthSick           HealthStatus = "Sick"
	HealthUnderTreatment HealthStatus = "Under Treatment"
)

func (h HealthStatus) Valid() bool {
	switch h {
	case HealthHealthy, HealthSick, HealthUnderTreatment:
		return true
	}
	return false
}

type CowStatus string

const (
	CowActive   CowStatus = "Active"
	CowSold     CowStatus = "Sold"
	CowDead     CowStatus = "Dead"
	CowPregnant CowStatus = "Pregnant"
)

func (s CowStatus) Valid() bool {
	switch s {
	case CowActive, CowSold, CowDead, CowPregnant:
		return true
	}
	return false
}

// Gestation is the interval between pregnancy date and expected delivery:
// nine calendar months and seven days.
const (
	gestationMonths = 9
	gestationDays   = 7
)

type Cow struct {
	ID                   uint             `gorm:"primaryKey" json:"id"`
	UserID               string           `gorm:"size:36;not null;uniqueIndex:uidx_cows_user_tag,priority:1" json:"user_id"`
	User                 *User            `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	TagNumber            string           `gorm:"size:50;not null;uniqueIndex:uidx_cows_user_tag,priority:2" json:"tag_number" validate:"required,max=50"`
	Name                 string           `gorm:"size:100;not null" json:"name" validate:"required,max=100"`
	Breed                string           `gorm:"size:50;not null" json:"breed" validate:"required,max=50"`
	Color                string           `gorm:"size:20" json:"color" validate:"max=20"`
	DateOfBirth          Date             `gorm:"not null" json:"date_of_birth" validate:"required"`
	PurchaseDate         *Date            `json:"purchase_date"`
	PurchasePrice        *decimal.Decimal `gorm:"type:decimal(10,2)" json:"purchase_price" validate:"omitempty,gte=0,lte=99999999,decimals=2"`
	HealthStatus         HealthStatus     `gorm:"size:20;not null;default:Healthy" json:"health_status" validate:"enum"`
	Status               CowStatus        `gorm:"size:20;not null;default:Active;index" json:"status" validate:"enum"`
	IsPregnant           bool             `gorm:"not null;default:false" json:"is_pregnant"`
	PregnancyDate        *Date            `json:"pregnancy_date"`
	ExpectedDeliveryDate *Date            `json:"expected_delivery_date"`
	Remarks              string           `gorm:"size:500" json:"remarks" validate:"max=500"`
	Version              uint             `gorm:"not null;default:1" json:"version"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// ApplyDefaults fills enum fields a client left empty.
func (c *Cow) ApplyDefaults() {
	if c.HealthStatus == "" {
		c.HealthStatus = HealthHealthy
	}
	if c.Status == "" {
		c.Status = CowActive
	}
}

// DeriveExpectedDelivery sets the expected delivery date from the pregnancy
// date, or clears it when the cow is not pregnant or the date is unknown.
func (c *Cow) DeriveExpectedDelivery() {
	if !c.IsPregnant || c.PregnancyDate == nil || c.PregnancyDate.IsZero() {
		c.ExpectedDeliveryDate = nil
		return
	}
	due := c.PregnancyDate.AddMonthsClamped(gestationMonths).AddDays(0, 0, gestationDays)
	c.ExpectedDeliveryDate = &due
}

// Age returns the cow's age in whole years on the given day.
func (c *Cow) Age(today Date) int {
	dob := c.DateOfBirth
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}
