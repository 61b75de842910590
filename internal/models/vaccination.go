package models

import "time"

type Vaccination struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"size:36;not null;index" json:"user_id"`
	User            *User     `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	CowID           uint      `gorm:"not null;index" json:"cow_id" validate:"required"`
	Cow             *Cow      `gorm:"constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"cow,omitempty"`
	VaccineName     string    `gorm:"size:100;not null" json:"vaccine_name" validate:"required,max=100"`
	VaccinationDate Date      `gorm:"not null;index" json:"vaccination_date" validate:"required"`
	NextDueDate     *Date     `json:"next_due_date"`
	Remarks         string    `gorm:"size:500" json:"remarks" validate:"max=500"`
	Version         uint      `gorm:"not null;default:1" json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
