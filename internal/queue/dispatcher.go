// Package queue is the job-queue collaborator: Redis-list dispatch with
// provider-side deduplication and at-least-once delivery. No exactly-once
// guarantee is assumed by consumers.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/manikandareas/masukptn-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// dedupRetention is the window within which a deduplication key suppresses
// re-enqueue of the same logical job.
const dedupRetention = 24 * time.Hour

// DispatchOptions configure one dispatch call.
type DispatchOptions struct {
	// MessageID pins the message id for callers that must record it before
	// the push becomes visible to workers. Empty generates one.
	MessageID string
	// DeduplicationID suppresses duplicate enqueues of the same logical job
	// within the provider's retention window.
	DeduplicationID string
	// Retries is the delivery retry budget for the receiving worker.
	Retries int
	// Label routes the message to the registered job handler.
	Label string
}

// Envelope is the wire format pushed onto the Redis queue.
type Envelope struct {
	MessageID       string          `json:"message_id"`
	Label           string          `json:"label"`
	DeduplicationID string          `json:"deduplication_id,omitempty"`
	Attempt         int             `json:"attempt"`
	MaxAttempts     int             `json:"max_attempts"`
	Payload         json.RawMessage `json:"payload"`
	EnqueuedAt      time.Time       `json:"enqueued_at"`
}

// Dispatcher pushes job envelopes onto the import queue.
type Dispatcher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(rdb *redis.Client, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		rdb: rdb,
		log: log.With().Str("component", "queue_dispatcher").Logger(),
	}
}

// Dispatch enqueues a job and returns the queue message id. When the
// deduplication key was already claimed within the retention window, the
// previously issued message id is returned and nothing is enqueued.
func (d *Dispatcher) Dispatch(ctx context.Context, payload any, opts DispatchOptions) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	messageID := opts.MessageID
	if messageID == "" {
		messageID = uuid.New().String()
	}

	if opts.DeduplicationID != "" {
		dedupKey := config.CacheKey.ImportDedupKey(opts.DeduplicationID)
		claimed, err := d.rdb.SetNX(ctx, dedupKey, messageID, dedupRetention).Result()
		if err != nil {
			return "", fmt.Errorf("claim dedup key: %w", err)
		}
		if !claimed {
			existing, err := d.rdb.Get(ctx, dedupKey).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return "", fmt.Errorf("read dedup key: %w", err)
			}
			d.log.Debug().
				Str("dedup_id", opts.DeduplicationID).
				Str("message_id", existing).
				Msg("Duplicate dispatch suppressed")
			return existing, nil
		}
	}

	env := Envelope{
		MessageID:       messageID,
		Label:           opts.Label,
		DeduplicationID: opts.DeduplicationID,
		Attempt:         1,
		MaxAttempts:     opts.Retries,
		Payload:         raw,
		EnqueuedAt:      time.Now().UTC(),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	if err := d.rdb.RPush(ctx, config.WorkerKey.ImportJobsQueue, body).Err(); err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	d.log.Info().
		Str("message_id", messageID).
		Str("label", opts.Label).
		Msg("Job dispatched")

	return messageID, nil
}

// Requeue pushes an envelope back for another delivery attempt.
func (d *Dispatcher) Requeue(ctx context.Context, env Envelope) error {
	env.Attempt++
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return d.rdb.RPush(ctx, config.WorkerKey.ImportJobsQueue, body).Err()
}
