package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueEmail = "jobs:email"
)

const (
	JobExpiryDigest     = "expiry_digest"
	JobListNotification = "list_notification"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// NotifyExpiry satisfies service.ExpiryNotifier: it queues an email digest
// job for a batch of freshly created alerts.
func (d *Dispatcher) NotifyExpiry(ctx context.Context, userID uuid.UUID, alertIDs []uuid.UUID) error {
	ids := make([]string, len(alertIDs))
	for i, id := range alertIDs {
		ids[i] = id.String()
	}
	return d.enqueue(ctx, QueueEmail, JobExpiryDigest, ExpiryDigestPayload{
		UserID:   userID.String(),
		AlertIDs: ids,
	})
}

// EnqueueListNotification queues an email about a freshly generated shopping list.
func (d *Dispatcher) EnqueueListNotification(ctx context.Context, payload ListNotificationPayload) error {
	return d.enqueue(ctx, QueueEmail, JobListNotification, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the email queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, emailWorker *EmailWorker, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, emailWorker, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, emailWorker *EmailWorker, id int) {
	queues := []string{QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, emailWorker, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, emailWorker *EmailWorker, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	switch job.Type {
	case JobExpiryDigest:
		emailWorker.ProcessExpiryDigest(ctx, job.Payload)
	case JobListNotification:
		emailWorker.ProcessListNotification(ctx, job.Payload)
	default:
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("unknown job type")
	}
}
