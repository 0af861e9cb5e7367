package models

import "time"

type User struct {
	ID            uint `gorm:"primarykey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Username      string  `gorm:"uniqueIndex;not null"`
	Password      string  `gorm:"not null"`
	Role          string  `gorm:"not null;default:'user'"`
	Balance       float64 `gorm:"type:decimal(20,8);not null;default:0"`
	FrozenBalance float64 `gorm:"type:decimal(20,8);not null;default:0"`
	IsActive      bool    `gorm:"default:true"`
	Version       int     `gorm:"default:1"`
}

// AvailableBalance is what the user can spend on new orders. Frozen credits
// are held outside Balance, so available balance is simply Balance.
func (u *User) AvailableBalance() float64 {
	return u.Balance
}
