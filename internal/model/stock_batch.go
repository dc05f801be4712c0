package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockBatch is a physical lot of a product: one purchase, one expiry date,
// one quantity that decays toward zero through OUT movements.
//
// Quantity is only ever mutated through StockService.RecordMovement — the
// batch update and the movement insert happen in the same transaction.
// Batches are never deleted; a drained batch stays as a zero-quantity
// historical record.
type StockBatch struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	LocationID *uuid.UUID      `gorm:"type:uuid"`
	// ExpiryDate nil means the batch never expires.
	ExpiryDate    *time.Time `gorm:"type:date;index"`
	PurchaseDate  time.Time  `gorm:"type:date;not null"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Supplier      string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Product  *Product  `gorm:"foreignKey:ProductID"`
	Location *Location `gorm:"foreignKey:LocationID"`
}

// TableName overrides GORM's default pluralization (stock_batches is fine,
// but keep it explicit alongside the other ledger tables).
func (StockBatch) TableName() string { return "stock_batches" }

// IsExpired reports whether the batch's expiry date is strictly before today.
func (b *StockBatch) IsExpired(today time.Time) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(today)
}

// DaysUntilExpiry returns the number of whole days until expiry, or nil for
// batches with no expiry date.
func (b *StockBatch) DaysUntilExpiry(today time.Time) *int {
	if b.ExpiryDate == nil {
		return nil
	}
	days := int(b.ExpiryDate.Sub(today).Hours() / 24)
	return &days
}
