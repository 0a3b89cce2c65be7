// Package metrics provides real-time metrics collection for the gateway.
//
// It uses a channel-based event pipeline to asynchronously collect metrics
// about:
//   - Cache hit/miss counts
//   - Upstream call failures, by reason
//   - Per-node health transitions
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the request path. Events are sent via a buffered channel with
// non-blocking semantics so a full buffer degrades to "metric dropped", not
// request latency.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//	collector.Emit(metrics.Event{Type: metrics.EventCacheHit, Method: "eth_chainId"})
//	snapshot := collector.Snapshot()
package metrics
