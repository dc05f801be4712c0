package service

import (
	"context"

	"pantrio/internal/dto"
	"pantrio/internal/model"
	"pantrio/internal/repository"

	"github.com/google/uuid"
)

// defaultCategoryColor is used when a category is created without one.
const defaultCategoryColor = "#6B7280"

// CategoryService manages the per-user category catalog products and the
// grouped shopping-list view hang off of.
type CategoryService interface {
	Create(ctx context.Context, userID uuid.UUID, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	List(ctx context.Context, userID uuid.UUID) ([]dto.CategoryResponse, error)
	Update(ctx context.Context, userID, categoryID uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error)
	Delete(ctx context.Context, userID, categoryID uuid.UUID) error
}

type categoryService struct {
	categories repository.CategoryRepository
}

func NewCategoryService(categories repository.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	exists, err := s.categories.NameExists(ctx, userID, req.Name, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	color := req.Color
	if color == "" {
		color = defaultCategoryColor
	}
	category := &model.Category{
		UserID: userID,
		Name:   req.Name,
		Icon:   req.Icon,
		Color:  color,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	resp := categoryToResponse(category, 0)
	return &resp, nil
}

func (s *categoryService) List(ctx context.Context, userID uuid.UUID) ([]dto.CategoryResponse, error) {
	categories, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, len(categories))
	for i := range categories {
		count, err := s.categories.CountProducts(ctx, categories[i].ID)
		if err != nil {
			return nil, err
		}
		out[i] = categoryToResponse(&categories[i], count)
	}
	return out, nil
}

func (s *categoryService) Update(ctx context.Context, userID, categoryID uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := s.owned(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != category.Name {
		exists, err := s.categories.NameExists(ctx, userID, *req.Name, &category.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrConflict
		}
		category.Name = *req.Name
	}
	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if req.Color != nil && *req.Color != "" {
		category.Color = *req.Color
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	count, err := s.categories.CountProducts(ctx, category.ID)
	if err != nil {
		return nil, err
	}
	resp := categoryToResponse(category, count)
	return &resp, nil
}

// Delete refuses to remove a category that products still reference.
func (s *categoryService) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	category, err := s.owned(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	count, err := s.categories.CountProducts(ctx, category.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	return s.categories.Delete(ctx, category.ID)
}

func (s *categoryService) owned(ctx context.Context, userID, categoryID uuid.UUID) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, categoryID)
	if err != nil || category.UserID != userID {
		return nil, ErrNotFound
	}
	return category, nil
}

func categoryToResponse(c *model.Category, productCount int64) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Icon:         c.Icon,
		Color:        c.Color,
		ProductCount: productCount,
	}
}
