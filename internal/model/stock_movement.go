package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement types. ADJUST sets the batch quantity to the movement's quantity
// (absolute correction) — it is NOT a delta like IN/OUT.
const (
	MovementIn     = "IN"
	MovementOut    = "OUT"
	MovementAdjust = "ADJUST"
)

// StockMovement is an append-only ledger entry. Once created it is never
// edited or deleted; its only side effect is the one-time mutation of its
// batch's quantity at creation time.
type StockMovement struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BatchID   *uuid.UUID `gorm:"type:uuid;index"`
	Type      string     `gorm:"type:varchar(10);not null"` // IN | OUT | ADJUST
	// Quantity is always positive; the movement type carries the sign.
	Quantity   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	OccurredAt time.Time       `gorm:"not null;index"`
	Note       string
	UserID     uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time

	Product *Product    `gorm:"foreignKey:ProductID"`
	Batch   *StockBatch `gorm:"foreignKey:BatchID"`
}

func (StockMovement) TableName() string { return "stock_movements" }
