package otlp

import (
	"context"
	"sync"
	"time"

	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/tordynnar/service-f/internal/logging"
)

// DefaultMetricsInterval is the period of the metrics snapshot tick.
const DefaultMetricsInterval = 10 * time.Second

// MetricsExporter periodically snapshots a shared request accumulator and
// ships the result to the collector's metrics service. Unlike the span and
// log exporters there is no per-event enqueue path: samples are computed by
// snapshotting and resetting the accumulator on each tick, and a tick that
// observed no requests emits nothing.
type MetricsExporter struct {
	mu              sync.Mutex
	requestCount    uint64
	totalDurationMs float64

	client   colmetricspb.MetricsServiceClient
	conn     *grpc.ClientConn
	enc      *Encoder
	callOpts []grpc.CallOption
	interval time.Duration
	timeout  time.Duration
	doneChan chan struct{}
}

// NewMetricsExporter creates a metrics exporter with its own long-lived
// collector connection. cfg.FlushInterval is ignored; the tick period is
// DefaultMetricsInterval unless overridden with SetInterval.
func NewMetricsExporter(cfg Config) (*MetricsExporter, error) {
	cfg = cfg.withDefaults()
	conn, callOpts, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	return &MetricsExporter{
		client:   colmetricspb.NewMetricsServiceClient(conn),
		conn:     conn,
		enc:      NewEncoder(cfg.ServiceName),
		callOpts: callOpts,
		interval: DefaultMetricsInterval,
		timeout:  cfg.Timeout,
		doneChan: make(chan struct{}),
	}, nil
}

// SetInterval overrides the snapshot tick period. Call before Start.
func (m *MetricsExporter) SetInterval(d time.Duration) {
	if d > 0 {
		m.interval = d
	}
}

// RecordRequest accumulates one served request and its duration into the
// shared counters drained by the next tick.
func (m *MetricsExporter) RecordRequest(duration time.Duration) {
	m.mu.Lock()
	m.requestCount++
	m.totalDurationMs += float64(duration) / float64(time.Millisecond)
	m.mu.Unlock()
}

// snapshot drains the accumulator and builds the metrics for one tick:
// a cumulative request counter and an average-duration gauge. Returns nil
// when no requests were observed since the previous tick.
func (m *MetricsExporter) snapshot(now time.Time) []Metric {
	m.mu.Lock()
	count := m.requestCount
	totalMs := m.totalDurationMs
	m.requestCount = 0
	m.totalDurationMs = 0
	m.mu.Unlock()

	if count == 0 {
		return nil
	}

	ts := uint64(now.UnixNano())
	return []Metric{
		{
			Name:        "service_f_requests_total",
			Description: "Total number of requests",
			Unit:        "1",
			Kind:        MetricCounter,
			Points: []NumberDataPoint{{
				TimeUnixNano: ts,
				IntValue:     int64(count),
			}},
		},
		{
			Name:        "service_f_request_duration_ms",
			Description: "Average request duration in milliseconds",
			Unit:        "ms",
			Kind:        MetricGauge,
			Points: []NumberDataPoint{{
				TimeUnixNano: ts,
				DoubleValue:  totalMs / float64(count),
				IsDouble:     true,
			}},
		},
	}
}

// Start runs the snapshot/export tick until ctx is canceled, then performs a
// final export of whatever the accumulator holds. Run it in its own
// goroutine.
func (m *MetricsExporter) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Flush(context.Background())
			close(m.doneChan)
			return
		case <-ticker.C:
			m.Flush(ctx)
		}
	}
}

// Flush snapshots the accumulator and, when requests were observed, performs
// one export call. Failures are logged and the samples discarded.
func (m *MetricsExporter) Flush(ctx context.Context) {
	metrics := m.snapshot(time.Now())
	if len(metrics) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	exportRequestsTotal.WithLabelValues("metrics").Inc()
	if _, err := m.client.Export(ctx, m.enc.MetricsRequest(metrics), m.callOpts...); err != nil {
		code := status.Code(err)
		exportErrorsTotal.WithLabelValues("metrics", code.String()).Inc()
		logging.Error("metrics export failed, samples dropped", logging.F(
			"code", code.String(),
			"error", err.Error(),
		))
		return
	}
	exportedItemsTotal.WithLabelValues("metrics").Add(float64(len(metrics)))
}

// Ready reports whether the collector connection is usable.
func (m *MetricsExporter) Ready() error {
	return connReady(m.conn)
}

// Wait blocks until the tick loop has exited after its final export.
func (m *MetricsExporter) Wait() {
	<-m.doneChan
}

// Close releases the collector connection. Call after Wait.
func (m *MetricsExporter) Close() error {
	return m.conn.Close()
}
