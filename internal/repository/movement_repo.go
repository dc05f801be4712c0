package repository

import (
	"context"
	"time"

	"pantrio/internal/dto"
	"pantrio/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementFilter narrows the movement ledger listing.
type MovementFilter struct {
	ProductID *uuid.UUID
	BatchID   *uuid.UUID
	Type      string
	Since     *time.Time
	Page      int
	Limit     int
}

// MovementRepository is append-only: movements are created (always inside the
// transaction that mutates the batch) and queried, never updated or deleted.
type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	List(ctx context.Context, userID uuid.UUID, filter MovementFilter) ([]model.StockMovement, int64, error)
	ConsumptionStats(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]dto.ProductConsumption, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository { return &movementRepo{db: db} }

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) List(ctx context.Context, userID uuid.UUID, filter MovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Joins("JOIN products ON products.id = stock_movements.product_id").
		Where("products.user_id = ?", userID).
		Preload("Product")
	if filter.ProductID != nil {
		q = q.Where("stock_movements.product_id = ?", *filter.ProductID)
	}
	if filter.BatchID != nil {
		q = q.Where("stock_movements.batch_id = ?", *filter.BatchID)
	}
	if filter.Type != "" {
		q = q.Where("stock_movements.type = ?", filter.Type)
	}
	if filter.Since != nil {
		q = q.Where("stock_movements.occurred_at >= ?", *filter.Since)
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

	var movements []model.StockMovement
	err := q.Order("stock_movements.occurred_at DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

func (r *movementRepo) ConsumptionStats(ctx context.Context, userID uuid.UUID, since time.Time, limit int) ([]dto.ProductConsumption, error) {
	if limit < 1 {
		limit = 10
	}
	var rows []struct {
		ProductID     uuid.UUID
		ProductName   string
		TotalConsumed decimal.Decimal
		MovementCount int64
	}
	err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select("stock_movements.product_id, products.name AS product_name, SUM(stock_movements.quantity) AS total_consumed, COUNT(*) AS movement_count").
		Joins("JOIN products ON products.id = stock_movements.product_id").
		Where("products.user_id = ? AND stock_movements.type = ? AND stock_movements.occurred_at >= ?",
			userID, model.MovementOut, since).
		Group("stock_movements.product_id, products.name").
		Order("total_consumed DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make([]dto.ProductConsumption, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, dto.ProductConsumption{
			ProductID:     row.ProductID.String(),
			ProductName:   row.ProductName,
			TotalConsumed: row.TotalConsumed,
			MovementCount: row.MovementCount,
		})
	}
	return stats, nil
}
