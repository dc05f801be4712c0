package service

import (
	"context"
	"time"

	"pantrio/internal/clock"
	"pantrio/internal/dto"
	"pantrio/internal/model"
	"pantrio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ExpiryNotifier hands freshly created alerts off for asynchronous email
// delivery. The worker dispatcher implements it; a nil notifier disables
// notification without touching the scan logic.
type ExpiryNotifier interface {
	NotifyExpiry(ctx context.Context, userID uuid.UUID, alertIDs []uuid.UUID) error
}

// AlertService runs the expiry scan and manages the alert inbox. The scan is
// idempotent per calendar day: re-running it creates nothing new.
type AlertService interface {
	ScanExpiry(ctx context.Context, user *model.User, warnDays int) (*dto.ScanResult, error)
	List(ctx context.Context, userID uuid.UUID, filter dto.AlertFilter) ([]dto.AlertResponse, int64, error)
	MarkRead(ctx context.Context, userID, alertID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CleanupOldAlerts(ctx context.Context) (int64, error)
}

type alertService struct {
	alerts   repository.AlertRepository
	batches  repository.BatchRepository
	products repository.ProductRepository
	notifier ExpiryNotifier
	clk      clock.Clock
}

func NewAlertService(
	alerts repository.AlertRepository,
	batches repository.BatchRepository,
	products repository.ProductRepository,
	notifier ExpiryNotifier,
	clk clock.Clock,
) AlertService {
	return &alertService{alerts: alerts, batches: batches, products: products, notifier: notifier, clk: clk}
}

// readAlertRetention is how long read alerts survive before cleanup.
const readAlertRetention = 30 * 24 * time.Hour

// ScanExpiry walks the user's live batches and raises EXPIRING_SOON alerts
// for batches expiring within warnDays and EXPIRED alerts for batches already
// past their date. At most one alert per (batch, type) per calendar day.
// warnDays <= 0 falls back to the user's configured window.
func (s *alertService) ScanExpiry(ctx context.Context, user *model.User, warnDays int) (*dto.ScanResult, error) {
	if warnDays <= 0 {
		warnDays = user.NotificationExpiryDays
	}
	if warnDays <= 0 {
		warnDays = 7
	}
	today := s.clk.Today()

	expiring, err := s.batches.ListExpiring(ctx, user.ID, today, today.AddDate(0, 0, warnDays))
	if err != nil {
		return nil, err
	}
	expired, err := s.batches.ListExpired(ctx, user.ID, today)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		batch     model.StockBatch
		alertType string
	}
	candidates := make([]candidate, 0, len(expiring)+len(expired))
	for _, b := range expiring {
		candidates = append(candidates, candidate{batch: b, alertType: model.AlertExpiringSoon})
	}
	for _, b := range expired {
		candidates = append(candidates, candidate{batch: b, alertType: model.AlertExpired})
	}

	var createdIDs []uuid.UUID
	for _, c := range candidates {
		exists, err := s.alerts.ExistsForDay(ctx, c.batch.ID, c.alertType, today)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		alert := &model.ExpiryAlert{
			BatchID:   c.batch.ID,
			AlertType: c.alertType,
			AlertDate: s.clk.Now(),
		}
		if err := s.alerts.Create(ctx, alert); err != nil {
			return nil, err
		}
		createdIDs = append(createdIDs, alert.ID)
	}

	result := &dto.ScanResult{AlertsCreated: len(createdIDs)}
	for _, id := range createdIDs {
		result.AlertIDs = append(result.AlertIDs, id.String())
	}

	// Notification is best effort: a dead queue must not fail the scan.
	if len(createdIDs) > 0 && s.notifier != nil && user.NotifyByEmail && user.Email != nil {
		if err := s.notifier.NotifyExpiry(ctx, user.ID, createdIDs); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("expiry notification enqueue failed")
		} else {
			result.Notified = true
		}
	}
	return result, nil
}

func (s *alertService) List(ctx context.Context, userID uuid.UUID, filter dto.AlertFilter) ([]dto.AlertResponse, int64, error) {
	alerts, total, err := s.alerts.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.AlertResponse, len(alerts))
	for i := range alerts {
		out[i] = s.alertToResponse(&alerts[i])
	}
	return out, total, nil
}

func (s *alertService) MarkRead(ctx context.Context, userID, alertID uuid.UUID) error {
	alert, err := s.alerts.FindByID(ctx, alertID)
	if err != nil {
		return ErrNotFound
	}
	if alert.Batch == nil || alert.Batch.Product == nil || alert.Batch.Product.UserID != userID {
		return ErrNotFound
	}
	return s.alerts.MarkRead(ctx, alertID)
}

func (s *alertService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.alerts.MarkAllRead(ctx, userID)
}

// CleanupOldAlerts drops alerts that were read more than 30 days ago. Unread
// alerts are kept regardless of age.
func (s *alertService) CleanupOldAlerts(ctx context.Context) (int64, error) {
	return s.alerts.DeleteReadOlderThan(ctx, s.clk.Now().Add(-readAlertRetention))
}

func (s *alertService) alertToResponse(a *model.ExpiryAlert) dto.AlertResponse {
	resp := dto.AlertResponse{
		ID:        a.ID.String(),
		BatchID:   a.BatchID.String(),
		AlertType: a.AlertType,
		AlertDate: a.AlertDate.Format(time.RFC3339),
		IsRead:    a.IsRead,
		EmailSent: a.EmailSent,
	}
	if a.Batch != nil {
		if a.Batch.Product != nil {
			resp.ProductName = a.Batch.Product.Name
		}
		if a.Batch.ExpiryDate != nil {
			ed := a.Batch.ExpiryDate.Format("2006-01-02")
			resp.ExpiryDate = &ed
			resp.DaysUntilExpiry = a.Batch.DaysUntilExpiry(s.clk.Today())
		}
		resp.Quantity = a.Batch.Quantity
	}
	return resp
}
