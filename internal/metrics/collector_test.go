package metrics_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/avhq/jsonrpc-gateway/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("NewCollector", func() {
		It("should create a collector with an empty snapshot", func() {
			Expect(collector).NotTo(BeNil())
			snap := collector.Snapshot()
			Expect(snap.CacheHits).To(Equal(int64(0)))
		})
	})

	Describe("Emit and Start", func() {
		It("should fold cache-hit and cache-miss events into the snapshot", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{Type: metrics.EventCacheHit})
			collector.Emit(metrics.Event{Type: metrics.EventCacheHit})
			collector.Emit(metrics.Event{Type: metrics.EventCacheMiss})

			Eventually(func() int64 {
				return collector.Snapshot().CacheHits
			}, time.Second, 10*time.Millisecond).Should(Equal(int64(2)))

			Expect(collector.Snapshot().CacheMisses).To(Equal(int64(1)))
		})

		It("should fold upstream failure events by reason", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{Type: metrics.EventUpstreamFailure, Reason: "timeout"})
			collector.Emit(metrics.Event{Type: metrics.EventUpstreamFailure, Reason: "timeout"})

			Eventually(func() int64 {
				return collector.Snapshot().UpstreamFailures["timeout"]
			}, time.Second, 10*time.Millisecond).Should(Equal(int64(2)))
		})

		It("should fold health-changed events per node", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{Type: metrics.EventHealthChanged, Node: "primary", Healthy: false})

			Eventually(func() bool {
				healthy, ok := collector.Snapshot().NodeHealth["primary"]
				return ok && !healthy
			}, time.Second, 10*time.Millisecond).Should(BeTrue())
		})

		It("should not block the caller when the event buffer is full", func() {
			full := metrics.NewCollector(1, log)
			done := make(chan struct{})
			go func() {
				for i := 0; i < 1000; i++ {
					full.Emit(metrics.Event{Type: metrics.EventCacheHit})
				}
				close(done)
			}()

			Eventually(done, time.Second).Should(BeClosed())
		})

		It("should drain pending events once before stopping on cancellation", func() {
			shortCtx, shortCancel := context.WithCancel(context.Background())
			collector.Start(shortCtx)
			collector.Emit(metrics.Event{Type: metrics.EventCacheHit})
			shortCancel()

			Eventually(func() int64 {
				return collector.Snapshot().CacheHits
			}, time.Second, 10*time.Millisecond).Should(Equal(int64(1)))
		})
	})
})
