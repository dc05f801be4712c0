package dto

import "github.com/shopspring/decimal"

// Quantity fields arrive as strings so that both "1.5" and "1,5" parse
// identically (see internal/quantity).

type CreateBatchRequest struct {
	ProductID       string  `json:"product_id" validate:"required,uuid"`
	InitialQuantity string  `json:"initial_quantity" validate:"required"`
	LocationID      *string `json:"location_id" validate:"omitempty,uuid"`
	ExpiryDate      *string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	PurchaseDate    *string `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice   *string `json:"purchase_price"`
	Supplier        string  `json:"supplier"`
	Notes           string  `json:"notes"`
}

type RecordMovementRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	BatchID   *string `json:"batch_id" validate:"omitempty,uuid"`
	Type      string  `json:"type" validate:"required,oneof=IN OUT ADJUST"`
	Quantity  string  `json:"quantity" validate:"required"`
	Note      string  `json:"note"`
}

type ConsumeRequest struct {
	Quantity string `json:"quantity" validate:"required"`
	Note     string `json:"note"`
}

type BatchResponse struct {
	ID              string           `json:"id"`
	ProductID       string           `json:"product_id"`
	ProductName     string           `json:"product_name,omitempty"`
	Quantity        decimal.Decimal  `json:"quantity"`
	LocationID      *string          `json:"location_id,omitempty"`
	ExpiryDate      *string          `json:"expiry_date,omitempty"`
	PurchaseDate    string           `json:"purchase_date"`
	PurchasePrice   *decimal.Decimal `json:"purchase_price,omitempty"`
	Supplier        string           `json:"supplier,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	IsExpired       bool             `json:"is_expired"`
	DaysUntilExpiry *int             `json:"days_until_expiry,omitempty"`
}

type MovementResponse struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	BatchID    *string         `json:"batch_id,omitempty"`
	Type       string          `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	OccurredAt string          `json:"occurred_at"`
	Note       string          `json:"note,omitempty"`
}

type ConsumeResult struct {
	Consumed  decimal.Decimal    `json:"consumed"`
	Movements []MovementResponse `json:"movements"`
}

type MovementFilter struct {
	ProductID string
	Type      string
	Days      int
	Page      int
	Limit     int
}

type MovementListResponse struct {
	Data  []MovementResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type StockSummary struct {
	TotalProducts          int64           `json:"total_products"`
	TotalBatches           int64           `json:"total_batches"`
	ProductsBelowThreshold int             `json:"products_below_threshold"`
	ProductsOutOfStock     int             `json:"products_out_of_stock"`
	BatchesExpiringSoon    int64           `json:"batches_expiring_soon"`
	BatchesExpired         int64           `json:"batches_expired"`
	TotalValue             decimal.Decimal `json:"total_value"`
}

type ProductConsumption struct {
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	TotalConsumed decimal.Decimal `json:"total_consumed"`
	MovementCount int64           `json:"movement_count"`
}
