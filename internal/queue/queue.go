// Package queue is the boundary to the Redis-backed task queue. The
// API process enqueues processing tasks here; the worker process
// consumes them. Delivery is at-least-once, so task handlers must be
// idempotent.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/phrazzld/audigest-api/internal/config"
)

// TypeProcessMedia is the task type for running the full ingestion
// pipeline over one media record.
const TypeProcessMedia = "media:process"

// ProcessMediaPayload is the JSON task payload.
type ProcessMediaPayload struct {
	MediaID int64 `json:"media_id"`
}

// Enqueuer submits processing tasks. The ingestion gateway depends on
// this interface rather than on the broker client.
type Enqueuer interface {
	// EnqueueProcessMedia schedules pipeline processing for the media
	// record.
	EnqueueProcessMedia(ctx context.Context, mediaID int64) error
}

// Client is the asynq-backed Enqueuer.
type Client struct {
	inner       *asynq.Client
	redis       *redis.Client
	queueName   string
	taskTimeout time.Duration
}

// NewClient creates an Enqueuer connected to the configured Redis
// instance.
func NewClient(cfg config.QueueConfig) *Client {
	return &Client{
		inner: asynq.NewClient(RedisOpt(cfg)),
		redis: redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		}),
		queueName:   cfg.Name,
		taskTimeout: cfg.TaskTimeout,
	}
}

// Ping reports broker reachability. Used by health checks.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pinging task broker: %w", err)
	}
	return nil
}

// RedisOpt translates queue configuration into asynq connection
// options, shared by the client and the worker server.
func RedisOpt(cfg config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}
}

// EnqueueProcessMedia implements Enqueuer.
func (c *Client) EnqueueProcessMedia(ctx context.Context, mediaID int64) error {
	payload, err := json.Marshal(ProcessMediaPayload{MediaID: mediaID})
	if err != nil {
		return fmt.Errorf("encoding task payload: %w", err)
	}
	task := asynq.NewTask(TypeProcessMedia, payload)
	opts := []asynq.Option{asynq.Queue(c.queueName)}
	if c.taskTimeout > 0 {
		// Long-form audio: a stuck download or transcription must not
		// hold a worker slot forever.
		opts = append(opts, asynq.Timeout(c.taskTimeout))
	}
	if _, err := c.inner.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueueing %s task for media %d: %w", TypeProcessMedia, mediaID, err)
	}
	return nil
}

// Close releases the broker connections.
func (c *Client) Close() error {
	if err := c.inner.Close(); err != nil {
		_ = c.redis.Close()
		return err
	}
	return c.redis.Close()
}
