package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is shared by all users and never deleted in normal
// operation.
type ExpenseCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"size:500" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Expense struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	UserID            string           `gorm:"size:36;not null;index" json:"user_id"`
	User              *User            `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	ExpenseDate       Date             `gorm:"not null;index" json:"expense_date" validate:"required"`
	ExpenseCategoryID uint             `gorm:"not null;index" json:"expense_category_id" validate:"required"`
	ExpenseCategory   *ExpenseCategory `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"expense_category,omitempty"`
	Description       string           `gorm:"size:200;not null" json:"description" validate:"required,max=200"`
	Amount            decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"amount" validate:"gte=0.01,lte=1000000,decimals=2"`
	Remarks           string           `gorm:"size:500" json:"remarks" validate:"max=500"`
	Version           uint             `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
