package repository

import (
	"context"

	"pantrio/internal/dto"
	"pantrio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShoppingRepository interface {
	CreateList(ctx context.Context, l *model.ShoppingList) error
	FindListByID(ctx context.Context, id uuid.UUID) (*model.ShoppingList, error)
	ListLists(ctx context.Context, userID uuid.UUID, filter dto.ListFilter) ([]model.ShoppingList, int64, error)
	UpdateList(ctx context.Context, l *model.ShoppingList) error
	UpdateListTx(tx *gorm.DB, l *model.ShoppingList) error
	// DeleteList removes a list and its items. Only the generator uses this,
	// to discard an auto-generated draft that produced zero items.
	DeleteList(ctx context.Context, id uuid.UUID) error

	CreateItem(ctx context.Context, it *model.ShoppingListItem) error
	FindItemByID(ctx context.Context, id uuid.UUID) (*model.ShoppingListItem, error)
	ItemExists(ctx context.Context, listID, productID uuid.UUID) (bool, error)
	UpdateItem(ctx context.Context, it *model.ShoppingListItem) error
	ListItems(ctx context.Context, listID uuid.UUID) ([]model.ShoppingListItem, error)

	DB() *gorm.DB
}

type shoppingRepo struct{ db *gorm.DB }

func NewShoppingRepository(db *gorm.DB) ShoppingRepository { return &shoppingRepo{db: db} }

func (r *shoppingRepo) CreateList(ctx context.Context, l *model.ShoppingList) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *shoppingRepo) FindListByID(ctx context.Context, id uuid.UUID) (*model.ShoppingList, error) {
	var l model.ShoppingList
	err := r.db.WithContext(ctx).
		Preload("Items.Product.Category").
		First(&l, "id = ?", id).Error
	return &l, err
}

func (r *shoppingRepo) ListLists(ctx context.Context, userID uuid.UUID, filter dto.ListFilter) ([]model.ShoppingList, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ShoppingList{}).
		Where("user_id = ?", userID).
		Preload("Items")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AutoGenerated != nil {
		q = q.Where("is_auto_generated = ?", *filter.AutoGenerated)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	var lists []model.ShoppingList
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&lists).Error
	return lists, total, err
}

func (r *shoppingRepo) UpdateList(ctx context.Context, l *model.ShoppingList) error {
	return r.db.WithContext(ctx).Omit("Items").Save(l).Error
}

func (r *shoppingRepo) UpdateListTx(tx *gorm.DB, l *model.ShoppingList) error {
	return tx.Omit("Items").Save(l).Error
}

func (r *shoppingRepo) DeleteList(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shopping_list_id = ?", id).Delete(&model.ShoppingListItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ShoppingList{}, "id = ?", id).Error
	})
}

func (r *shoppingRepo) CreateItem(ctx context.Context, it *model.ShoppingListItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *shoppingRepo) FindItemByID(ctx context.Context, id uuid.UUID) (*model.ShoppingListItem, error) {
	var it model.ShoppingListItem
	err := r.db.WithContext(ctx).Preload("Product.Category").First(&it, "id = ?", id).Error
	return &it, err
}

func (r *shoppingRepo) ItemExists(ctx context.Context, listID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ShoppingListItem{}).
		Where("shopping_list_id = ? AND product_id = ?", listID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *shoppingRepo) UpdateItem(ctx context.Context, it *model.ShoppingListItem) error {
	return r.db.WithContext(ctx).Save(it).Error
}

func (r *shoppingRepo) ListItems(ctx context.Context, listID uuid.UUID) ([]model.ShoppingListItem, error) {
	var items []model.ShoppingListItem
	err := r.db.WithContext(ctx).Preload("Product.Category").
		Where("shopping_list_id = ?", listID).
		Order("CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END, created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *shoppingRepo) DB() *gorm.DB { return r.db }
