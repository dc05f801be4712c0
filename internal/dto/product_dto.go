package dto

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Name string `json:"name" validate:"required"`
	Unit string `json:"unit" validate:"omitempty,oneof=piece g kg ml l pack"`
	// Threshold accepts "1.5" and "1,5" alike.
	Threshold         string  `json:"threshold" validate:"omitempty"`
	AutoAddToList     *bool   `json:"auto_add_to_list"`
	CategoryID        *string `json:"category_id" validate:"omitempty,uuid"`
	DefaultLocationID *string `json:"default_location_id" validate:"omitempty,uuid"`
	Barcode           string  `json:"barcode"`
	Brand             string  `json:"brand"`
	Notes             string  `json:"notes"`
}

type UpdateProductRequest struct {
	Name              *string `json:"name"`
	Unit              *string `json:"unit" validate:"omitempty,oneof=piece g kg ml l pack"`
	Threshold         *string `json:"threshold"`
	AutoAddToList     *bool   `json:"auto_add_to_list"`
	CategoryID        *string `json:"category_id" validate:"omitempty,uuid"`
	DefaultLocationID *string `json:"default_location_id" validate:"omitempty,uuid"`
	Barcode           *string `json:"barcode"`
	Brand             *string `json:"brand"`
	Notes             *string `json:"notes"`
}

type ProductResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	Threshold         decimal.Decimal `json:"threshold"`
	AutoAddToList     bool            `json:"auto_add_to_list"`
	CategoryID        *string         `json:"category_id,omitempty"`
	CategoryName      string          `json:"category_name,omitempty"`
	DefaultLocationID *string         `json:"default_location_id,omitempty"`
	Barcode           string          `json:"barcode,omitempty"`
	Brand             string          `json:"brand,omitempty"`
	Notes             string          `json:"notes,omitempty"`

	// Derived from the ledger, never stored.
	TotalStock       decimal.Decimal `json:"total_stock"`
	IsBelowThreshold bool            `json:"is_below_threshold"`
	NeedsRestock     bool            `json:"needs_restock"`
}

type ProductFilter struct {
	Name       string
	CategoryID string
	Page       int
	Limit      int
}

// RestockState is the Restock Evaluator's per-product output.
type RestockState struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	TotalStock       decimal.Decimal `json:"total_stock"`
	Threshold        decimal.Decimal `json:"threshold"`
	IsBelowThreshold bool            `json:"is_below_threshold"`
	NeedsRestock     bool            `json:"needs_restock"`
}

type CreateLocationRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type LocationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
