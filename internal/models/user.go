package models

import "time"

// User is the tenant root. Every other owned row references it with a
// restrict-on-delete foreign key.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"size:100" json:"full_name"`
	Address      string    `gorm:"size:255" json:"address"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
