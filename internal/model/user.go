package model

import (
	"time"

	"github.com/google/uuid"
)

// User stores household members with role-based access.
// Role: "member" | "admin"
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	// NotificationExpiryDays is how many days ahead of a batch's expiry date
	// the daily scan starts warning this user.
	NotificationExpiryDays int  `gorm:"not null;default:7"`
	NotifyByEmail          bool `gorm:"not null;default:true"`
	Active                 bool `gorm:"not null;default:true"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
