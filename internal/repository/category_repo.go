package repository

import (
	"context"

	"pantrio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryRepository covers the product category catalog.
type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	NameExists(ctx context.Context, userID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	// CountProducts reports how many products reference the category. A
	// category in use cannot be deleted.
	CountProducts(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

type categoryRepo struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository { return &categoryRepo{db: db} }

func (r *categoryRepo) Create(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *categoryRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepo) Update(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Category{}, "id = ?", id).Error
}

func (r *categoryRepo) NameExists(ctx context.Context, userID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("user_id = ? AND lower(name) = lower(?)", userID, name)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *categoryRepo) CountProducts(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}
