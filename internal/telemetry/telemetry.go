// Package telemetry implements the optional Redis Streams publisher
// (SPEC_FULL.md §4.10): a fire-and-forget per-step health feed an
// external dashboard can tail. A telemetry failure is logged and never
// aborts the step loop — it is not one of the four session sinks.
package telemetry

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamName is the capped Redis Stream every session publishes to.
const StreamName = "collector:steps"

// maxLen caps the stream so a forgotten consumer never grows it
// unbounded; ~5000 recent steps is enough context for a live dashboard.
const maxLen = 5000

// Publisher wraps a Redis client for step telemetry.
type Publisher struct {
	client *redis.Client
}

// Connect dials addr and verifies connectivity with a short-lived ping.
// Per SPEC_FULL.md §5, this (and every later publish) uses its own
// bounded context independent of the encoder/log writes that the
// Orchestrator allows true backpressure on.
func Connect(addr, password string, db int) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Publisher{client: client}, nil
}

// PublishStep records one step's health snapshot. Errors are returned
// for the caller to log, never to abort the loop on.
func (p *Publisher) PublishStep(sessionName string, stepIndex uint64, tick uint64, droppedEvents uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamName,
		Values: map[string]interface{}{
			"session":        sessionName,
			"step_index":     stepIndex,
			"tick":           tick,
			"dropped_events": droppedEvents,
		},
		MaxLen: maxLen,
		Approx: true,
	}).Err()
}

// Close releases the underlying connection pool.
func (p *Publisher) Close() error {
	return p.client.Close()
}
