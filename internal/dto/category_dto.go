package dto

type CreateCategoryRequest struct {
	Name  string `json:"name" validate:"required"`
	Icon  string `json:"icon"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

type CategoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Icon         string `json:"icon,omitempty"`
	Color        string `json:"color"`
	ProductCount int64  `json:"product_count"`
}
