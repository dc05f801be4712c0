package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	ReasonBelowThreshold = "below_threshold"
	ReasonOutOfStock     = "out_of_stock"
	ReasonExpiringSoon   = "expiring_soon"
	ReasonManual         = "manual"
)

// ShoppingListItem suggests one product purchase. A product appears at most
// once per list (enforced by the composite unique index and by the service's
// conflict check on manual additions).
type ShoppingListItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShoppingListID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_list_product"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_list_product"`

	SuggestedQuantity decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	ActualQuantity    *decimal.Decimal `gorm:"type:decimal(10,2)"`

	Priority string `gorm:"type:varchar(20);not null;default:'normal'"` // low | normal | high | urgent
	Reason   string `gorm:"type:varchar(30);not null;default:'manual'"` // below_threshold | out_of_stock | expiring_soon | manual

	EstimatedCost *decimal.Decimal `gorm:"type:decimal(10,2)"`
	ActualCost    *decimal.Decimal `gorm:"type:decimal(10,2)"`

	IsChecked bool `gorm:"not null;default:false"`
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (ShoppingListItem) TableName() string { return "shopping_list_items" }
