package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	AlertExpiringSoon = "EXPIRING_SOON"
	AlertExpired      = "EXPIRED"
)

// ExpiryAlert records that a batch was flagged by the daily expiry scan.
// At most one alert exists per (batch, alert_type, calendar day) — the scan
// dedups against alerts already created today, making it idempotent.
type ExpiryAlert struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BatchID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AlertType string    `gorm:"type:varchar(20);not null"` // EXPIRING_SOON | EXPIRED
	AlertDate time.Time `gorm:"not null;index"`
	IsRead    bool      `gorm:"not null;default:false"`
	EmailSent bool      `gorm:"not null;default:false"`

	Batch *StockBatch `gorm:"foreignKey:BatchID"`
}

func (ExpiryAlert) TableName() string { return "expiry_alerts" }
