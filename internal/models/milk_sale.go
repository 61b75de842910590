package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BuyerType string

const (
	BuyerDairy BuyerType = "Dairy"
	BuyerHotel BuyerType = "Hotel"
	BuyerLocal BuyerType = "Local"
)

func (b BuyerType) Valid() bool {
	switch b {
	case BuyerDairy, BuyerHotel, BuyerLocal:
		return true
	}
	return false
}

type MilkSale struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       string          `gorm:"size:36;not null;index" json:"user_id"`
	User         *User           `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	SaleDate     Date            `gorm:"not null;index" json:"sale_date" validate:"required"`
	BuyerName    string          `gorm:"size:200;not null" json:"buyer_name" validate:"required,max=200"`
	BuyerType    BuyerType       `gorm:"size:20;not null;default:Local" json:"buyer_type" validate:"enum"`
	Quantity     decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"quantity" validate:"gt=0,lte=1000,decimals=2"`
	RatePerLiter decimal.Decimal `gorm:"type:decimal(6,2);not null" json:"rate_per_liter" validate:"gte=1,lte=200,decimals=2"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Remarks      string          `gorm:"size:500" json:"remarks" validate:"max=500"`
	Version      uint            `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (s *MilkSale) ApplyDefaults() {
	if s.BuyerType == "" {
		s.BuyerType = BuyerLocal
	}
}

// ComputeTotal sets TotalAmount to quantity times rate, rounded to cents.
func (s *MilkSale) ComputeTotal() {
	s.TotalAmount = s.Quantity.Mul(s.RatePerLiter).Round(2)
}
