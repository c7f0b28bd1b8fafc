package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/manikandareas/masukptn-backend/internal/config"
	"github.com/manikandareas/masukptn-backend/internal/jobs"
	"github.com/manikandareas/masukptn-backend/internal/queue"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	importPollTimeout = 1 * time.Second
	// importLockTTL bounds how long a crashed worker can hold a message
	// claim before a redelivered copy may be picked up again.
	importLockTTL = 10 * time.Minute
)

// ImportWorker drains the import job queue: each envelope is claimed with a
// per-message lock, routed through the job registry, and requeued while its
// retry budget lasts. Delivery is at-least-once; handlers are expected to
// short-circuit duplicates themselves.
type ImportWorker struct {
	rdb      *redis.Client
	registry *jobs.Registry
	queue    *queue.Dispatcher
	log      zerolog.Logger
}

// NewImportWorker creates a new ImportWorker.
func NewImportWorker(rdb *redis.Client, registry *jobs.Registry, q *queue.Dispatcher, log zerolog.Logger) *ImportWorker {
	return &ImportWorker{
		rdb:      rdb,
		registry: registry,
		queue:    q,
		log:      log.With().Str("component", "import_worker").Logger(),
	}
}

// Start runs the worker loop until the context is cancelled.
func (w *ImportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ImportWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ImportWorker shutting down")
			return
		default:
			item, err := w.rdb.BLPop(ctx, importPollTimeout, config.WorkerKey.ImportJobsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var env queue.Envelope
			if err := json.Unmarshal([]byte(item[1]), &env); err != nil {
				w.log.Error().Err(err).Msg("Invalid envelope, dropping")
				continue
			}

			w.handle(ctx, env)
		}
	}
}

func (w *ImportWorker) handle(ctx context.Context, env queue.Envelope) {
	lockKey := config.CacheKey.JobLockKey(env.MessageID)
	claimed, err := w.rdb.SetNX(ctx, lockKey, "1", importLockTTL).Result()
	if err != nil {
		w.log.Error().Err(err).Str("message_id", env.MessageID).Msg("Lock claim failed, requeueing")
		w.requeue(ctx, env)
		return
	}
	if !claimed {
		w.log.Debug().Str("message_id", env.MessageID).Msg("Message already claimed by another worker")
		return
	}

	handler, ok := w.registry.Get(env.Label)
	if !ok {
		w.log.Error().Str("label", env.Label).Str("message_id", env.MessageID).Msg("No handler for job label, dropping")
		return
	}

	if err := handler(ctx, env.Payload); err != nil {
		w.log.Warn().Err(err).
			Str("message_id", env.MessageID).
			Int("attempt", env.Attempt).
			Int("max_attempts", env.MaxAttempts).
			Msg("Job handler failed")

		// Release the claim so the requeued copy can be picked up.
		if delErr := w.rdb.Del(ctx, lockKey).Err(); delErr != nil {
			w.log.Error().Err(delErr).Str("message_id", env.MessageID).Msg("Lock release failed")
		}
		if env.Attempt < env.MaxAttempts {
			w.requeue(ctx, env)
		} else {
			w.log.Error().Str("message_id", env.MessageID).Msg("Retry budget exhausted, dropping job")
		}
		return
	}

	w.log.Info().Str("message_id", env.MessageID).Str("label", env.Label).Msg("Job completed")
}

func (w *ImportWorker) requeue(ctx context.Context, env queue.Envelope) {
	if err := w.queue.Requeue(ctx, env); err != nil {
		w.log.Error().Err(err).Str("message_id", env.MessageID).Msg("Requeue failed")
	}
}
