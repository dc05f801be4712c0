package dto

import "github.com/shopspring/decimal"

type CreateListRequest struct {
	Title string `json:"title" validate:"required"`
	Notes string `json:"notes"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  string `json:"quantity" validate:"required"`
	Priority  string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Notes     string `json:"notes"`
}

type SetActualsRequest struct {
	ActualQuantity *string `json:"actual_quantity"`
	ActualCost     *string `json:"actual_cost"`
}

type CompleteListRequest struct {
	AutoUpdateStock bool `json:"auto_update_stock"`
}

type ItemResponse struct {
	ID                string           `json:"id"`
	ProductID         string           `json:"product_id"`
	ProductName       string           `json:"product_name,omitempty"`
	Category          string           `json:"category,omitempty"`
	Unit              string           `json:"unit,omitempty"`
	SuggestedQuantity decimal.Decimal  `json:"suggested_quantity"`
	ActualQuantity    *decimal.Decimal `json:"actual_quantity,omitempty"`
	Priority          string           `json:"priority"`
	Reason            string           `json:"reason"`
	EstimatedCost     *decimal.Decimal `json:"estimated_cost,omitempty"`
	ActualCost        *decimal.Decimal `json:"actual_cost,omitempty"`
	IsChecked         bool             `json:"is_checked"`
	Notes             string           `json:"notes,omitempty"`
}

type ListResponse struct {
	ID                   string         `json:"id"`
	Title                string         `json:"title"`
	Status               string         `json:"status"`
	IsAutoGenerated      bool           `json:"is_auto_generated"`
	Notes                string         `json:"notes,omitempty"`
	TotalItems           int            `json:"total_items"`
	CheckedItems         int            `json:"checked_items"`
	CompletionPercentage int            `json:"completion_percentage"`
	CompletedAt          *string        `json:"completed_at,omitempty"`
	CreatedAt            string         `json:"created_at"`
	Items                []ItemResponse `json:"items,omitempty"`
}

type ListFilter struct {
	Status        string
	AutoGenerated *bool
	Page          int
	Limit         int
}

// CategoryItemsGroup is one bucket of the grouped list view: all items whose
// product shares a category, keyed by the category name.
type CategoryItemsGroup struct {
	Category string         `json:"category"`
	Color    string         `json:"color,omitempty"`
	Items    []ItemResponse `json:"items"`
}

type GenerateResult struct {
	Message     string        `json:"message"`
	ListCreated bool          `json:"list_created"`
	ItemCount   int           `json:"item_count"`
	List        *ListResponse `json:"list,omitempty"`
}

type CompleteResult struct {
	Status         string `json:"status"`
	StockUpdated   bool   `json:"stock_updated"`
	BatchesCreated int    `json:"batches_created"`
}
