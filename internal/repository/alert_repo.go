package repository

import (
	"context"
	"time"

	"pantrio/internal/dto"
	"pantrio/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertRepository interface {
	Create(ctx context.Context, a *model.ExpiryAlert) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ExpiryAlert, error)
	// ExistsForDay reports whether the batch already has an alert of the given
	// type created within [dayStart, dayStart+24h) — the scan's dedup guard.
	ExistsForDay(ctx context.Context, batchID uuid.UUID, alertType string, dayStart time.Time) (bool, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.AlertFilter) ([]model.ExpiryAlert, int64, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ExpiryAlert, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkEmailSent(ctx context.Context, ids []uuid.UUID) error
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type alertRepo struct{ db *gorm.DB }

func NewAlertRepository(db *gorm.DB) AlertRepository { return &alertRepo{db: db} }

func (r *alertRepo) Create(ctx context.Context, a *model.ExpiryAlert) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *alertRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ExpiryAlert, error) {
	var a model.ExpiryAlert
	err := r.db.WithContext(ctx).Preload("Batch.Product").First(&a, "id = ?", id).Error
	return &a, err
}

func (r *alertRepo) ExistsForDay(ctx context.Context, batchID uuid.UUID, alertType string, dayStart time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ExpiryAlert{}).
		Where("batch_id = ? AND alert_type = ?", batchID, alertType).
		Where("alert_date >= ? AND alert_date < ?", dayStart, dayStart.Add(24*time.Hour)).
		Count(&count).Error
	return count > 0, err
}

func (r *alertRepo) List(ctx context.Context, userID uuid.UUID, filter dto.AlertFilter) ([]model.ExpiryAlert, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ExpiryAlert{}).
		Joins("JOIN stock_batches ON stock_batches.id = expiry_alerts.batch_id").
		Joins("JOIN products ON products.id = stock_batches.product_id").
		Where("products.user_id = ?", userID).
		Preload("Batch.Product")
	if filter.AlertType != "" {
		q = q.Where("expiry_alerts.alert_type = ?", filter.AlertType)
	}
	if filter.IsRead != nil {
		q = q.Where("expiry_alerts.is_read = ?", *filter.IsRead)
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

	var alerts []model.ExpiryAlert
	err := q.Order("expiry_alerts.alert_date DESC").Offset(offset).Limit(limit).Find(&alerts).Error
	return alerts, total, err
}

func (r *alertRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.ExpiryAlert, error) {
	var alerts []model.ExpiryAlert
	err := r.db.WithContext(ctx).Preload("Batch.Product").
		Where("id IN ?", ids).Find(&alerts).Error
	return alerts, err
}

func (r *alertRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ExpiryAlert{}).
		Where("id = ?", id).Update("is_read", true).Error
}

func (r *alertRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE expiry_alerts SET is_read = true
		WHERE is_read = false AND batch_id IN (
			SELECT stock_batches.id FROM stock_batches
			JOIN products ON products.id = stock_batches.product_id
			WHERE products.user_id = ?
		)`, userID)
	return result.RowsAffected, result.Error
}

func (r *alertRepo) MarkEmailSent(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.ExpiryAlert{}).
		Where("id IN ?", ids).Update("email_sent", true).Error
}

func (r *alertRepo) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_read = true AND alert_date < ?", cutoff).
		Delete(&model.ExpiryAlert{})
	return result.RowsAffected, result.Error
}
