package dto

import "github.com/shopspring/decimal"

type AlertResponse struct {
	ID              string          `json:"id"`
	BatchID         string          `json:"batch_id"`
	ProductName     string          `json:"product_name,omitempty"`
	AlertType       string          `json:"alert_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	ExpiryDate      *string         `json:"expiry_date,omitempty"`
	AlertDate       string          `json:"alert_date"`
	IsRead          bool            `json:"is_read"`
	EmailSent       bool            `json:"email_sent"`
	DaysUntilExpiry *int            `json:"days_until_expiry,omitempty"`
}

type AlertFilter struct {
	AlertType string
	IsRead    *bool
	Page      int
	Limit     int
}

type ScanResult struct {
	AlertsCreated int      `json:"alerts_created"`
	AlertIDs      []string `json:"alert_ids,omitempty"`
	Notified      bool     `json:"notified"`
}
