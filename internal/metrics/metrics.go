package metrics

import (
	"sync"
	"time"
)

// Metrics holds the counters the Collector accumulates. All access goes
// through its methods, which serialize via mutex.
type Metrics struct {
	mutex            sync.RWMutex
	cacheHits        int64
	cacheMisses      int64
	upstreamFailures map[string]int64
	nodeHealth       map[string]bool
	startTime        time.Time
}

// Snapshot is the JSON-serializable view returned by /status-adjacent
// tooling (not part of the §6 /status contract itself, which is node
// name+status only, but useful operational surface the teacher's own
// metrics package always exposed).
type Snapshot struct {
	Uptime           time.Duration    `json:"uptime"`
	CacheHits        int64            `json:"cache_hits"`
	CacheMisses      int64            `json:"cache_misses"`
	UpstreamFailures map[string]int64 `json:"upstream_failures"`
	NodeHealth       map[string]bool  `json:"node_health"`
}

// NewMetrics creates an empty Metrics with its start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{
		upstreamFailures: make(map[string]int64),
		nodeHealth:       make(map[string]bool),
		startTime:        time.Now(),
	}
}

func (m *Metrics) recordCacheHit() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cacheHits++
}

func (m *Metrics) recordCacheMiss() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cacheMisses++
}

func (m *Metrics) recordUpstreamFailure(reason string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.upstreamFailures[reason]++
}

func (m *Metrics) updateNodeHealth(node string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.nodeHealth[node] = healthy
}

// Snapshot returns a point-in-time copy of the accumulated counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	failures := make(map[string]int64, len(m.upstreamFailures))
	for k, v := range m.upstreamFailures {
		failures[k] = v
	}
	health := make(map[string]bool, len(m.nodeHealth))
	for k, v := range m.nodeHealth {
		health[k] = v
	}

	return Snapshot{
		Uptime:           time.Since(m.startTime),
		CacheHits:        m.cacheHits,
		CacheMisses:      m.cacheMisses,
		UpstreamFailures: failures,
		NodeHealth:       health,
	}
}
