package model

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies products (food, drinks, cleaning, ...) and drives the
// grouped view of shopping lists. Names are unique per owning user.
type Category struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_category_name"`
	Name   string    `gorm:"not null;uniqueIndex:idx_user_category_name"`
	// Icon holds an emoji or icon class for clients.
	Icon      string
	Color     string `gorm:"not null;default:'#6B7280'"` // hex
	CreatedAt time.Time
}
