package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MilkRecord is one cow's yield for one day. TotalQuantity is persisted at
// write time and is what every report sums.
type MilkRecord struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          string          `gorm:"size:36;not null;index" json:"user_id"`
	User            *User           `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	CowID           uint            `gorm:"not null;uniqueIndex:uidx_milk_cow_date,priority:1" json:"cow_id" validate:"required"`
	Cow             *Cow            `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"cow,omitempty"`
	Date            Date            `gorm:"not null;uniqueIndex:uidx_milk_cow_date,priority:2;index" json:"date" validate:"required"`
	MorningQuantity decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"morning_quantity" validate:"gte=0,lte=50,decimals=2"`
	EveningQuantity decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"evening_quantity" validate:"gte=0,lte=50,decimals=2"`
	TotalQuantity   decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"total_quantity"`
	Remarks         string          `gorm:"size:500" json:"remarks" validate:"max=500"`
	Version         uint            `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (m *MilkRecord) ComputeTotal() {
	m.TotalQuantity = m.MorningQuantity.Add(m.EveningQuantity).Round(2)
}
