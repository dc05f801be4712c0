package repository

import (
	"context"
	"errors"

	"pantrio/internal/dto"
	"pantrio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for the catalog.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error)
	ListAllByUser(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
	ListAutoAdd(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	NameExists(ctx context.Context, userID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Locations
	CreateLocation(ctx context.Context, l *model.Location) error
	FindLocationByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	ListLocations(ctx context.Context, userID uuid.UUID) ([]model.Location, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Category").Preload("DefaultLocation").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, userID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("user_id = ?", userID)
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.CategoryID != "" {
		q = q.Where("category_id = ?", filter.CategoryID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit
	err := q.Preload("Category").Order("name ASC").Limit(limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) ListAutoAdd(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND auto_add_to_list = true", userID).
		Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "DefaultLocation").Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id).Error
}

func (r *productRepo) NameExists(ctx context.Context, userID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("user_id = ? AND name = ?", userID, name)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *productRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *productRepo) CreateLocation(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *productRepo) FindLocationByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var l model.Location
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *productRepo) ListLocations(ctx context.Context, userID uuid.UUID) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&locations).Error
	return locations, err
}

func (r *productRepo) DB() *gorm.DB { return r.db }

// IsNotFound reports whether err is GORM's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
