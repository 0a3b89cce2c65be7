package metrics

import (
	"context"
	"log/slog"
)

// EventType identifies what kind of occurrence a Event carries.
type EventType string

const (
	EventCacheHit        EventType = "cache_hit"
	EventCacheMiss       EventType = "cache_miss"
	EventUpstreamFailure EventType = "upstream_failure"
	EventHealthChanged   EventType = "health_changed"
)

// Event is a single occurrence emitted from the request path or the
// prober, queued for asynchronous processing by the Collector.
type Event struct {
	Type    EventType
	Method  string
	Reason  string
	Node    string
	Healthy bool
}

// Collector runs a dedicated goroutine that drains an event channel and
// folds events into Metrics, keeping the request path free of lock
// contention on the metrics store.
type Collector struct {
	eventCh chan Event
	metrics *Metrics
	logger  *slog.Logger
}

// NewCollector creates a Collector with the given event buffer size.
func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit enqueues evt without blocking; a full buffer drops the event rather
// than stalling the caller (the caller is on the request or prober path).
func (c *Collector) Emit(evt Event) {
	select {
	case c.eventCh <- evt:
	default:
	}
}

// Start begins processing events in a background goroutine until ctx is
// cancelled.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("metrics collector started")
	defer c.logger.Info("metrics collector stopped")

	for {
		select {
		case evt := <-c.eventCh:
			c.processEvent(evt)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(evt Event) {
	switch evt.Type {
	case EventCacheHit:
		c.metrics.recordCacheHit()
	case EventCacheMiss:
		c.metrics.recordCacheMiss()
	case EventUpstreamFailure:
		c.metrics.recordUpstreamFailure(evt.Reason)
	case EventHealthChanged:
		c.metrics.updateNodeHealth(evt.Node, evt.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case evt := <-c.eventCh:
			c.processEvent(evt)
		default:
			return
		}
	}
}

// Snapshot returns the current accumulated counters.
func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
