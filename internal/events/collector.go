// Package events publishes simulation lifecycle events to Kafka. The
// collector decouples the simulator's hot path from the broker: Track never
// blocks, and a background goroutine batches and flushes.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecampos-dev/epinet/internal/epidemic"
	"github.com/ecampos-dev/epinet/pkg/kafka"
	"github.com/ecampos-dev/epinet/pkg/resilience"
)

const (
	defaultBufferSize = 10000
	flushBatchSize    = 100
	flushInterval     = time.Second
)

// Collector buffers simulation events and publishes them to Kafka in
// batches. It satisfies epidemic.EventSink. Events are keyed by run ID so
// one run's timeline lands on a single partition in order.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan kafka.Event
	logger   *slog.Logger
	quit     chan struct{}
	done     chan struct{}
}

// NewCollector creates a Collector with the given channel buffer size.
func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan kafka.Event, bufferSize),
		logger:   slog.Default().With("component", "event-collector"),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background publish loop. Buffered events accumulate
// into batches of up to flushBatchSize, flushed at least every
// flushInterval. On ctx cancellation the remaining buffer is drained with a
// short deadline.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()

		batch := make([]kafka.Event, 0, flushBatchSize)
		for {
			select {
			case event := <-c.eventCh:
				batch = append(batch, event)
				if len(batch) >= flushBatchSize {
					c.flush(ctx, batch)
					batch = batch[:0]
				}
			case <-ticker.C:
				c.flush(ctx, batch)
				batch = batch[:0]
			case <-c.quit:
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx, append(batch, c.drain()...))
				cancel()
				return
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx, append(batch, c.drain()...))
				cancel()
				return
			}
		}
	}()
	c.logger.Info("event collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues a simulation event without blocking. Events are dropped,
// with a warning, when the buffer is full, and silently discarded after
// Close. The event channel itself is never closed, so a straggling Track
// can never panic.
func (c *Collector) Track(event any) {
	select {
	case <-c.quit:
		return
	default:
	}
	select {
	case c.eventCh <- kafka.Event{Key: partitionKey(event), Value: event}:
	default:
		c.logger.Warn("simulation event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the publish loop to flush and
// exit.
func (c *Collector) Close() {
	close(c.quit)
	<-c.done
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) {
	if len(batch) == 0 {
		return
	}
	err := resilience.Retry(ctx, "publish-simulation-events", resilience.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 50 * time.Millisecond,
	}, func() error {
		return c.producer.PublishBatch(ctx, batch)
	})
	if err != nil {
		c.logger.Error("failed to publish event batch",
			"batch_size", len(batch),
			"error", err,
		)
		return
	}
	c.logger.Debug("event batch published", "events", len(batch))
}

func (c *Collector) drain() []kafka.Event {
	var remaining []kafka.Event
	for {
		select {
		case event := <-c.eventCh:
			remaining = append(remaining, event)
		default:
			return remaining
		}
	}
}

func partitionKey(event any) string {
	switch e := event.(type) {
	case epidemic.RunStartedEvent:
		return e.RunID
	case epidemic.TickEvent:
		return e.RunID
	case epidemic.RunCompletedEvent:
		return e.RunID
	default:
		return "simulation"
	}
}
