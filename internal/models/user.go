package models

import "time"

// User represents the user model in the database
type User struct {
	Base
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	Fullname         string     `json:"fullname"`
	Image            string     `json:"image,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	Budgets []Budget `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
	Debts   []Debt   `gorm:"foreignKey:UserID" json:"debts,omitempty"`
}
