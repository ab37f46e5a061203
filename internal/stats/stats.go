// Package stats tracks request-level statistics for the service: per-table
// request counts, handler errors, and an estimate of unique trace IDs seen
// in the current window. Trace cardinality uses HyperLogLog so memory stays
// fixed (~12KB) no matter how many traces flow through.
package stats

import (
	"context"
	"sync"
	"time"

	"github.com/axiomhq/hyperloglog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tordynnar/service-f/internal/logging"
)

var (
	handledRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "service_f_handled_requests_total",
			Help: "Total requests handled, by table name.",
		},
		[]string{"table"},
	)
	handlerErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "service_f_handler_errors_total",
			Help: "Total requests that ended in a handler error.",
		},
	)
	uniqueTracesWindow = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "service_f_unique_traces_window",
			Help: "Estimated unique trace IDs observed in the current stats window.",
		},
	)
)

func init() {
	prometheus.MustRegister(handledRequestsTotal)
	prometheus.MustRegister(handlerErrorsTotal)
	prometheus.MustRegister(uniqueTracesWindow)
}

// Collector accumulates request statistics.
type Collector struct {
	mu sync.Mutex

	perTable      map[string]uint64
	totalRequests uint64
	totalErrors   uint64
	sketch        *hyperloglog.Sketch
}

// Snapshot is a point-in-time view of the collector.
type Snapshot struct {
	TotalRequests uint64
	TotalErrors   uint64
	PerTable      map[string]uint64
	UniqueTraces  uint64
}

// NewCollector creates an empty stats collector.
func NewCollector() *Collector {
	return &Collector{
		perTable: make(map[string]uint64),
		sketch:   hyperloglog.New(),
	}
}

// RecordRequest records one handled request for the given table and trace.
func (c *Collector) RecordRequest(table, traceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.perTable[table]++
	c.sketch.Insert([]byte(traceID))
	handledRequestsTotal.WithLabelValues(table).Inc()
}

// RecordError records one request that ended in a handler error.
func (c *Collector) RecordError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalErrors++
	handlerErrorsTotal.Inc()
}

// UniqueTraces returns the estimated number of unique trace IDs seen in the
// current window. Full lock because Estimate may mutate internal HLL state.
func (c *Collector) UniqueTraces() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sketch.Estimate()
}

// Stats returns a snapshot of the collector.
func (c *Collector) Stats() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	perTable := make(map[string]uint64, len(c.perTable))
	for k, v := range c.perTable {
		perTable[k] = v
	}
	return Snapshot{
		TotalRequests: c.totalRequests,
		TotalErrors:   c.totalErrors,
		PerTable:      perTable,
		UniqueTraces:  c.sketch.Estimate(),
	}
}

// ResetWindow clears the trace cardinality sketch for a new window. Request
// counters are cumulative and survive the reset.
func (c *Collector) ResetWindow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sketch = hyperloglog.New()
}

// StartPeriodicLogging logs a stats summary every interval and resets the
// trace window after each log line. It blocks until ctx is canceled.
func (c *Collector) StartPeriodicLogging(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := c.Stats()
			uniqueTracesWindow.Set(float64(snap.UniqueTraces))
			logging.Info("stats", logging.F(
				"requests_total", snap.TotalRequests,
				"errors_total", snap.TotalErrors,
				"unique_traces_window", snap.UniqueTraces,
				"tables", len(snap.PerTable),
			))
			c.ResetWindow()
		}
	}
}
