package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry for a household consumable. The engine treats
// products as read-only: stock lives in StockBatch rows, never here.
// Threshold is the minimum desired quantity before a product counts as low.
type Product struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// Name is unique per owning user, not globally.
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_product_name"`
	Name              string          `gorm:"not null;uniqueIndex:idx_user_product_name"`
	Unit              string          `gorm:"not null;default:'piece'"` // piece | g | kg | ml | l | pack
	Threshold         decimal.Decimal `gorm:"type:decimal(10,2);not null;default:1"`
	AutoAddToList     bool            `gorm:"not null;default:true"`
	CategoryID        *uuid.UUID      `gorm:"type:uuid"`
	DefaultLocationID *uuid.UUID      `gorm:"type:uuid"`
	Barcode           string
	Brand             string
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Category        *Category `gorm:"foreignKey:CategoryID"`
	DefaultLocation *Location `gorm:"foreignKey:DefaultLocationID"`
}

// Location is a storage place (fridge, freezer, pantry, ...) owned by a user.
type Location struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_location_name"`
	Name        string    `gorm:"not null;uniqueIndex:idx_user_location_name"`
	Description string
	CreatedAt   time.Time
}
