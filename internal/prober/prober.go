package prober

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avhq/jsonrpc-gateway/internal/metrics"
	"github.com/avhq/jsonrpc-gateway/internal/node"
)

// Prober periodically probes every node concurrently, joining the round
// before starting the next tick.
type Prober struct {
	nodes     []*node.Node
	interval  time.Duration
	logger    *slog.Logger
	collector *metrics.Collector
}

// New creates a Prober over nodes, ticking every interval. collector may be
// nil, in which case health transitions are only logged.
func New(nodes []*node.Node, interval time.Duration, logger *slog.Logger, collector *metrics.Collector) *Prober {
	return &Prober{nodes: nodes, interval: interval, logger: logger, collector: collector}
}

// Run blocks, probing nodes every interval until ctx is cancelled. A
// time.Ticker is not realigned after a slow round; at most one catch-up
// tick is issued if a round overruns the interval (§4.4). Cancellation is
// observed at tick boundaries and propagates into each probe's context so
// an in-flight HTTP exchange is aborted promptly too.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probeAll(ctx)
		}
	}
}

func (p *Prober) probeAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, n := range p.nodes {
		wg.Add(1)
		go func(n *node.Node) {
			defer wg.Done()
			wasHealthy := n.IsAvailable()
			healthy := n.Probe(ctx)
			if healthy != wasHealthy {
				if healthy {
					p.logger.Info("upstream node recovered", slog.String("node", n.Name()))
				} else {
					p.logger.Warn("upstream node became unhealthy", slog.String("node", n.Name()))
				}
				if p.collector != nil {
					p.collector.Emit(metrics.Event{Type: metrics.EventHealthChanged, Node: n.Name(), Healthy: healthy})
				}
			}
		}(n)
	}
	wg.Wait()
}
