// Package notify delivers job lifecycle events to a configured webhook.
// Delivery is async and best-effort: events are queued in a bounded channel,
// sent by a single worker with bounded retry, and dropped when the buffer is
// full. Polling remains the only status transport; this is an outbound
// observation channel for display collaborators.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"guidetrack/pkg/backoff"
	"guidetrack/pkg/cloudevent"
)

// ErrBufferFull is returned when the queue is full and the event is dropped.
var ErrBufferFull = errors.New("notifier buffer full, event dropped")

// MetricsRecorder is an optional interface for recording notifier metrics.
type MetricsRecorder interface {
	RecordNotifierDelivered(ctx context.Context, durationSeconds float64)
	RecordNotifierFailed(ctx context.Context)
	RecordNotifierDropped(ctx context.Context)
	RecordNotifierQueueSize(ctx context.Context, size int64)
}

// Notifier sends CloudEvents to one destination URL.
type Notifier struct {
	queue   chan *cloudevent.CloudEvent
	sender  *cloudevent.Sender
	config  Config
	logger  *slog.Logger
	metrics MetricsRecorder

	queued    atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	wg       sync.WaitGroup
	shutdown chan struct{}
	closed   atomic.Bool
}

// Stats holds notifier statistics.
type Stats struct {
	QueueDepth int   // current queue size
	Queued     int64 // total events queued
	Delivered  int64 // successful deliveries
	Failed     int64 // failed after retries
	Dropped    int64 // dropped due to full buffer
}

// New creates a notifier and starts its delivery worker. The destination URL
// must be non-empty; callers with no webhook configured should pass a nil
// sink to the tracker instead.
func New(cfg Config, metrics MetricsRecorder) *Notifier {
	cfg = cfg.withDefaults()

	n := &Notifier{
		queue:    make(chan *cloudevent.CloudEvent, cfg.BufferSize),
		sender:   cloudevent.NewSender(cfg.HTTPTimeout),
		config:   cfg,
		logger:   slog.With("component", "notifier"),
		metrics:  metrics,
		shutdown: make(chan struct{}),
	}

	n.wg.Add(1)
	go n.worker()

	if metrics != nil {
		go n.reportQueueSize()
	}

	n.logger.Info("Notifier started", "destination", cfg.URL, "buffer", cfg.BufferSize)
	return n
}

// Publish queues an event for async delivery. Non-blocking.
func (n *Notifier) Publish(event *cloudevent.CloudEvent) error {
	if n.closed.Load() {
		return errors.New("notifier is closed")
	}

	select {
	case n.queue <- event:
		n.queued.Add(1)
		return nil
	default:
		n.dropped.Add(1)
		if n.metrics != nil {
			n.metrics.RecordNotifierDropped(context.Background())
		}
		n.logger.Warn("Event dropped, buffer full", "type", event.Type, "subject", event.Subject)
		return ErrBufferFull
	}
}

// Stats returns current notifier statistics.
func (n *Notifier) Stats() Stats {
	return Stats{
		QueueDepth: len(n.queue),
		Queued:     n.queued.Load(),
		Delivered:  n.delivered.Load(),
		Failed:     n.failed.Load(),
		Dropped:    n.dropped.Load(),
	}
}

// Close gracefully shuts down, attempting to deliver queued events. The
// context deadline controls how long to wait for the drain.
func (n *Notifier) Close(ctx context.Context) error {
	if n.closed.Swap(true) {
		return nil // already closed
	}

	n.logger.Info("Notifier shutting down", "queued", len(n.queue))
	close(n.shutdown)

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		n.logger.Info("Notifier shutdown complete",
			"delivered", n.delivered.Load(),
			"failed", n.failed.Load(),
			"dropped", n.dropped.Load(),
		)
		return nil
	case <-ctx.Done():
		n.logger.Warn("Notifier shutdown timed out", "remaining", len(n.queue))
		return ctx.Err()
	}
}

// reportQueueSize periodically reports the queue size metric.
func (n *Notifier) reportQueueSize() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-n.shutdown:
			return
		case <-ticker.C:
			n.metrics.RecordNotifierQueueSize(context.Background(), int64(len(n.queue)))
		}
	}
}

// worker delivers events from the queue until shutdown, then drains.
func (n *Notifier) worker() {
	defer n.wg.Done()

	for {
		select {
		case <-n.shutdown:
			n.drainQueue()
			return
		case event := <-n.queue:
			n.deliver(event)
		}
	}
}

// drainQueue delivers remaining events after the shutdown signal.
func (n *Notifier) drainQueue() {
	for {
		select {
		case event := <-n.queue:
			n.deliver(event)
		default:
			return // queue empty
		}
	}
}

// deliver attempts to deliver one event with bounded retry.
func (n *Notifier) deliver(event *cloudevent.CloudEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), n.config.DeliveryTimeout)
	defer cancel()

	start := time.Now()
	if err := n.sendWithRetry(ctx, event); err != nil {
		n.failed.Add(1)
		if n.metrics != nil {
			n.metrics.RecordNotifierFailed(ctx)
		}
		n.logger.Warn("Delivery failed", "type", event.Type, "subject", event.Subject, "error", err)
		return
	}

	n.delivered.Add(1)
	if n.metrics != nil {
		n.metrics.RecordNotifierDelivered(ctx, time.Since(start).Seconds())
	}
}

func (n *Notifier) sendWithRetry(ctx context.Context, event *cloudevent.CloudEvent) error {
	var lastErr error
	for attempt := range n.config.MaxRetries + 1 {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff.Exponential(attempt, nil)):
			}
		}

		lastErr = n.sender.Send(ctx, n.config.URL, event, n.config.SigningKey)
		if lastErr == nil {
			return nil
		}
		if cloudevent.IsClientError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
