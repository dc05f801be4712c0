package repository

import (
	"context"
	"time"

	"pantrio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchFilter narrows batch listings.
type BatchFilter struct {
	ProductID  *uuid.UUID
	LocationID *uuid.UUID
	Page       int
	Limit      int
}

// BatchRepository is the data access contract for stock batches. Quantity
// writes only happen through the Tx variants so the movement insert and the
// batch update share one transaction.
type BatchRepository interface {
	CreateTx(tx *gorm.DB, b *model.StockBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockBatch, error)
	// FindByIDForUpdateTx reads the batch row with a FOR UPDATE lock so
	// concurrent movements on the same batch serialize.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.StockBatch, error)
	SetQuantityTx(tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal) error

	List(ctx context.Context, userID uuid.UUID, filter BatchFilter) ([]model.StockBatch, int64, error)
	ListAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockBatch, error)
	TotalByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	TotalsByProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// Expiry queries — live batches (quantity > 0) with a non-null expiry date.
	ListExpiring(ctx context.Context, userID uuid.UUID, after, until time.Time) ([]model.StockBatch, error)
	ListExpired(ctx context.Context, userID uuid.UUID, before time.Time) ([]model.StockBatch, error)
	ListToConsumeFirst(ctx context.Context, userID uuid.UUID, limit int) ([]model.StockBatch, error)

	// Dashboard aggregates.
	CountLive(ctx context.Context, userID uuid.UUID) (int64, error)
	CountExpiring(ctx context.Context, userID uuid.UUID, after, until time.Time) (int64, error)
	CountExpired(ctx context.Context, userID uuid.UUID, before time.Time) (int64, error)
	TotalPurchaseValue(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	DB() *gorm.DB
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

func (r *batchRepo) CreateTx(tx *gorm.DB, b *model.StockBatch) error {
	return tx.Create(b).Error
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockBatch, error) {
	var b model.StockBatch
	err := r.db.WithContext(ctx).Preload("Product").First(&b, "id = ?", id).Error
	return &b, err
}

func (r *batchRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.StockBatch, error) {
	var b model.StockBatch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error
	return &b, err
}

func (r *batchRepo) SetQuantityTx(tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal) error {
	return tx.Model(&model.StockBatch{}).Where("id = ?", id).Update("quantity", quantity).Error
}

func (r *batchRepo) List(ctx context.Context, userID uuid.UUID, filter BatchFilter) ([]model.StockBatch, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockBatch{}).
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.user_id = ?", userID).
		Preload("Product").Preload("Location")
	if filter.ProductID != nil {
		q = q.Where("stock_batches.product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		q = q.Where("stock_batches.location_id = ?", *filter.LocationID)
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
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var batches []model.StockBatch
	err := q.Order("stock_batches.expiry_date ASC NULLS LAST, stock_batches.created_at DESC").
		Offset(offset).Limit(limit).Find(&batches).Error
	return batches, total, err
}

func (r *batchRepo) ListAvailableByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockBatch, error) {
	var batches []model.StockBatch
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND quantity > 0", productID).
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) TotalByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.StockBatch{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (r *batchRepo) TotalsByProducts(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	totals := make(map[uuid.UUID]decimal.Decimal, len(productIDs))
	if len(productIDs) == 0 {
		return totals, nil
	}
	var rows []struct {
		ProductID uuid.UUID
		Total     decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.StockBatch{}).
		Select("product_id, COALESCE(SUM(quantity), 0) AS total").
		Where("product_id IN ?", productIDs).
		Group("product_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.ProductID] = row.Total
	}
	return totals, nil
}

func (r *batchRepo) ListExpiring(ctx context.Context, userID uuid.UUID, after, until time.Time) ([]model.StockBatch, error) {
	var batches []model.StockBatch
	err := r.liveExpiryScope(ctx, userID).
		Where("stock_batches.expiry_date > ? AND stock_batches.expiry_date <= ?", after, until).
		Order("stock_batches.expiry_date ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) ListExpired(ctx context.Context, userID uuid.UUID, before time.Time) ([]model.StockBatch, error) {
	var batches []model.StockBatch
	err := r.liveExpiryScope(ctx, userID).
		Where("stock_batches.expiry_date < ?", before).
		Order("stock_batches.expiry_date ASC").
		Find(&batches).Error
	return batches, err
}

func (r *batchRepo) ListToConsumeFirst(ctx context.Context, userID uuid.UUID, limit int) ([]model.StockBatch, error) {
	if limit < 1 {
		limit = 20
	}
	var batches []model.StockBatch
	err := r.liveExpiryScope(ctx, userID).
		Order("stock_batches.expiry_date ASC").
		Limit(limit).
		Find(&batches).Error
	return batches, err
}

// liveExpiryScope scopes to the user's batches that still hold stock and
// carry an expiry date, with Product preloaded for response building.
func (r *batchRepo) liveExpiryScope(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.StockBatch{}).
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.user_id = ?", userID).
		Where("stock_batches.quantity > 0 AND stock_batches.expiry_date IS NOT NULL").
		Preload("Product")
}

func (r *batchRepo) CountLive(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.StockBatch{}).
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.user_id = ? AND stock_batches.quantity > 0", userID).
		Count(&count).Error
	return count, err
}

func (r *batchRepo) CountExpiring(ctx context.Context, userID uuid.UUID, after, until time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.StockBatch{}).
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.user_id = ?", userID).
		Where("stock_batches.quantity > 0 AND stock_batches.expiry_date IS NOT NULL").
		Where("stock_batches.expiry_date > ? AND stock_batches.expiry_date <= ?", after, until).
		Count(&count).Error
	return count, err
}

func (r *batchRepo) CountExpired(ctx context.Context, userID uuid.UUID, before time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.StockBatch{}).
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.user_id = ?", userID).
		Where("stock_batches.quantity > 0 AND stock_batches.expiry_date IS NOT NULL").
		Where("stock_batches.expiry_date < ?", before).
		Count(&count).Error
	return count, err
}

func (r *batchRepo) TotalPurchaseValue(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.StockBatch{}).
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.user_id = ? AND stock_batches.quantity > 0", userID).
		Select("COALESCE(SUM(stock_batches.purchase_price), 0)").Scan(&total).Error
	if err != nil || !total.Valid {
		return decimal.Zero, err
	}
	return total.Decimal, nil
}

func (r *batchRepo) DB() *gorm.DB { return r.db }
