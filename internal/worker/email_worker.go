package worker

// email_worker.go
// Processes email jobs from QueueEmail: expiry digests and shopping list
// notifications. All SMTP traffic goes through the circuit breaker so a
// downed relay fast-fails instead of stalling the pool.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pantrio/internal/infra"
	"pantrio/internal/model"
	"pantrio/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ExpiryDigestPayload identifies the alerts to fold into one digest email.
type ExpiryDigestPayload struct {
	UserID   string   `json:"user_id"`
	AlertIDs []string `json:"alert_ids"`
}

// ListNotificationPayload announces an auto-generated shopping list.
type ListNotificationPayload struct {
	UserID         string `json:"user_id"`
	ShoppingListID string `json:"shopping_list_id"`
	ItemCount      int    `json:"item_count"`
	Title          string `json:"title"`
}

type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	alerts repository.AlertRepository
	users  repository.UserRepository
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, alerts repository.AlertRepository, users repository.UserRepository) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, alerts: alerts, users: users}
}

// ProcessExpiryDigest composes one plain-text digest for a batch of alerts
// and marks them email_sent on success.
func (w *EmailWorker) ProcessExpiryDigest(ctx context.Context, raw json.RawMessage) {
	var payload ExpiryDigestPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid expiry digest payload")
		return
	}

	user, to := w.recipient(ctx, payload.UserID)
	if user == nil || to == "" {
		return
	}

	ids := make([]uuid.UUID, 0, len(payload.AlertIDs))
	for _, s := range payload.AlertIDs {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	alerts, err := w.alerts.ListByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("email_worker: failed to load alerts")
		return
	}
	if len(alerts) == 0 {
		return
	}

	subject := fmt.Sprintf("%d products need attention", len(alerts))
	body := composeDigest(user.Name, alerts)

	sendErr := w.cb.Execute(func() error {
		return w.mailer.Send(to, subject, body, "")
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("to", to).Msg("email_worker: failed to send expiry digest")
		return
	}

	if err := w.alerts.MarkEmailSent(ctx, ids); err != nil {
		log.Error().Err(err).Msg("email_worker: failed to mark alerts as emailed")
	}
	log.Info().Str("to", to).Int("alerts", len(alerts)).Msg("email_worker: expiry digest sent")
}

// ProcessListNotification tells the user a new auto-generated list is waiting.
func (w *EmailWorker) ProcessListNotification(ctx context.Context, raw json.RawMessage) {
	var payload ListNotificationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid list notification payload")
		return
	}

	_, to := w.recipient(ctx, payload.UserID)
	if to == "" {
		return
	}

	subject := "Your shopping list is ready"
	body := fmt.Sprintf("A shopping list %q with %d item(s) was generated from your current stock levels.", payload.Title, payload.ItemCount)

	sendErr := w.cb.Execute(func() error {
		return w.mailer.Send(to, subject, body, "")
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("to", to).Msg("email_worker: failed to send list notification")
		return
	}
	log.Info().Str("to", to).Msg("email_worker: list notification sent")
}

func (w *EmailWorker) recipient(ctx context.Context, rawID string) (*model.User, string) {
	userID, err := uuid.Parse(rawID)
	if err != nil {
		log.Error().Str("user_id", rawID).Msg("email_worker: malformed user id")
		return nil, ""
	}
	user, err := w.users.FindByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", rawID).Msg("email_worker: user not found")
		return nil, ""
	}
	if !user.NotifyByEmail || user.Email == nil || *user.Email == "" {
		log.Debug().Str("user_id", rawID).Msg("email_worker: user has no email notifications — skipping")
		return user, ""
	}
	return user, *user.Email
}

func composeDigest(name string, alerts []model.ExpiryAlert) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hello %s,\n\nThe following batches need attention:\n\n", name)
	for _, a := range alerts {
		product := "unknown product"
		expiry := ""
		if a.Batch != nil {
			if a.Batch.Product != nil {
				product = a.Batch.Product.Name
			}
			if a.Batch.ExpiryDate != nil {
				expiry = a.Batch.ExpiryDate.Format("02/01/2006")
			}
		}
		switch a.AlertType {
		case model.AlertExpired:
			fmt.Fprintf(&sb, "  - %s: EXPIRED since %s\n", product, expiry)
		default:
			fmt.Fprintf(&sb, "  - %s: expires on %s\n", product, expiry)
		}
	}
	sb.WriteString("\nCheck your pantry to avoid waste.\n")
	return sb.String()
}
