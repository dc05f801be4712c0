package worker

// scheduler.go
// Background goroutine replacing external cron: a daily tick runs the expiry
// scan for every active user and prunes old read alerts, and on the first day
// of each month a shopping list is generated for users who need one.

import (
	"context"
	"time"

	"pantrio/internal/clock"
	"pantrio/internal/repository"
	"pantrio/internal/service"

	"github.com/rs/zerolog/log"
)

const schedulerTickInterval = time.Hour

// SchedulerConfig holds all dependencies for the scheduler goroutine.
type SchedulerConfig struct {
	Users      repository.UserRepository
	Alerts     service.AlertService
	Shopping   service.ShoppingService
	Dispatcher *Dispatcher
	Clock      clock.Clock
}

// StartScheduler launches a goroutine that ticks hourly and fires each task
// at most once per day (or month). It respects the context for graceful
// shutdown.
func StartScheduler(ctx context.Context, cfg SchedulerConfig) {
	go func() {
		ticker := time.NewTicker(schedulerTickInterval)
		defer ticker.Stop()

		log.Info().Msg("scheduler: started")

		var lastDaily, lastMonthly time.Time
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("scheduler: shutting down")
				return
			case <-ticker.C:
				today := cfg.Clock.Today()
				if !today.Equal(lastDaily) {
					runDailyTasks(ctx, cfg)
					lastDaily = today
				}
				monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
				if today.Day() == 1 && !monthStart.Equal(lastMonthly) {
					runMonthlyGeneration(ctx, cfg)
					lastMonthly = monthStart
				}
			}
		}
	}()
}

// runDailyTasks scans every active user's batches for expiry alerts and
// prunes read alerts past retention. One user failing never stops the sweep.
func runDailyTasks(ctx context.Context, cfg SchedulerConfig) {
	users, err := cfg.Users.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: failed to list users for expiry scan")
		return
	}

	created := 0
	for i := range users {
		result, err := cfg.Alerts.ScanExpiry(ctx, &users[i], 0)
		if err != nil {
			log.Error().Err(err).Str("user_id", users[i].ID.String()).Msg("scheduler: expiry scan failed")
			continue
		}
		created += result.AlertsCreated
	}
	log.Info().Int("users", len(users)).Int("alerts_created", created).Msg("scheduler: daily expiry scan done")

	deleted, err := cfg.Alerts.CleanupOldAlerts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: alert cleanup failed")
	} else if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("scheduler: old read alerts pruned")
	}
}

// runMonthlyGeneration builds a shopping list for each active user whose
// stock warrants one and queues an email notification when it does.
func runMonthlyGeneration(ctx context.Context, cfg SchedulerConfig) {
	users, err := cfg.Users.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: failed to list users for list generation")
		return
	}

	for i := range users {
		user := &users[i]
		result, err := cfg.Shopping.Generate(ctx, user)
		if err != nil {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("scheduler: list generation failed")
			continue
		}
		if !result.ListCreated {
			continue
		}
		log.Info().
			Str("user_id", user.ID.String()).
			Int("items", result.ItemCount).
			Msg("scheduler: monthly shopping list generated")

		if cfg.Dispatcher != nil && user.NotifyByEmail && user.Email != nil && result.List != nil {
			err := cfg.Dispatcher.EnqueueListNotification(ctx, ListNotificationPayload{
				UserID:         user.ID.String(),
				ShoppingListID: result.List.ID,
				ItemCount:      result.ItemCount,
				Title:          result.List.Title,
			})
			if err != nil {
				log.Warn().Err(err).Msg("scheduler: list notification enqueue failed")
			}
		}
	}
}
