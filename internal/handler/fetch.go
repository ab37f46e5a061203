// Package handler implements the business logic of the grpcarch.ServiceF
// RPC surface. The single method, FetchLegacyData, simulates a lookup in a
// legacy table and reports a span, correlated log lines, and request metrics
// for each call. Telemetry is best-effort: a full queue or broken exporter
// never fails the RPC.
package handler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/tordynnar/service-f/internal/hexid"
	"github.com/tordynnar/service-f/internal/legacypb"
	"github.com/tordynnar/service-f/internal/logging"
	"github.com/tordynnar/service-f/internal/otlp"
	"github.com/tordynnar/service-f/internal/stats"
	"github.com/tordynnar/service-f/internal/tracectx"
	"google.golang.org/grpc/metadata"
)

const (
	// FetchLegacyDataMethod is the full gRPC method name served by Fetcher.
	FetchLegacyDataMethod = "/grpcarch.ServiceF/FetchLegacyData"

	serviceName = "grpcarch.ServiceF"
	methodName  = "FetchLegacyData"

	// Simulated legacy-store latency bounds.
	minLookupDelay = 3 * time.Millisecond
	maxLookupDelay = 8 * time.Millisecond
)

// SpanSink receives completed spans. *otlp.Exporter[otlp.Span] satisfies it.
type SpanSink interface {
	Enqueue(otlp.Span) error
}

// MetricsSink receives per-request timings. *otlp.MetricsExporter satisfies it.
type MetricsSink interface {
	RecordRequest(time.Duration)
}

// Fetcher handles FetchLegacyData calls. Any telemetry sink may be nil, in
// which case that signal is simply not reported.
type Fetcher struct {
	spans   SpanSink
	metrics MetricsSink
	stats   *stats.Collector
}

// NewFetcher creates a Fetcher reporting to the given sinks.
func NewFetcher(spans SpanSink, metrics MetricsSink, collector *stats.Collector) *Fetcher {
	return &Fetcher{spans: spans, metrics: metrics, stats: collector}
}

// FetchLegacyData services one call. The request decodes as a
// LegacyDataRequest; malformed payloads are tolerated and answered with
// placeholder identifiers rather than an error, matching the lenient posture
// of the legacy stores this fronts.
func (f *Fetcher) FetchLegacyData(ctx context.Context, md metadata.MD, req []byte) ([]byte, error) {
	tc := tracectx.Extract(md)
	spanID := hexid.NewSpanID()
	start := time.Now()

	var in legacypb.LegacyDataRequest
	if err := in.Unmarshal(req); err != nil {
		logging.Warn("failed to decode request, using placeholders",
			logging.F("error", err.Error(), "trace_id", tc.TraceID, "span_id", spanID))
	}
	recordID := in.RecordID
	if recordID == "" {
		recordID = "unknown"
	}
	table := in.TableName
	if table == "" {
		table = "unknown"
	}

	logging.Info("Fetching legacy data", logging.F(
		"trace_id", tc.TraceID,
		"span_id", spanID,
		"record_id", recordID,
		"table", table,
	))

	f.simulateLookup(ctx)

	now := time.Now()
	resp := legacypb.LegacyDataResponse{
		Status: &legacypb.ResponseStatus{
			Success: true,
			Message: "Data fetched successfully",
		},
		Record: &legacypb.LegacyRecord{
			ID:        recordID,
			RawData:   []byte(fmt.Sprintf(`{"source": %q, "data": "legacy_value_%s"}`, table, recordID)),
			CreatedAt: now.Unix() - 86400,
			UpdatedAt: now.Unix(),
			Fields: map[string]string{
				"source":     table,
				"fetched_by": "service-f",
			},
		},
	}

	duration := time.Since(start)
	logging.Info("Legacy data fetched", logging.F(
		"trace_id", tc.TraceID,
		"span_id", spanID,
		"record_id", recordID,
		"table", table,
		"duration_ms", duration.Milliseconds(),
	))

	f.report(tc, spanID, table, start, duration)
	return resp.Marshal(), nil
}

// report ships the per-call telemetry. Nothing here can fail the RPC.
func (f *Fetcher) report(tc tracectx.Context, spanID, table string, start time.Time, duration time.Duration) {
	if f.stats != nil {
		f.stats.RecordRequest(table, tc.TraceID)
	}
	if f.metrics != nil {
		f.metrics.RecordRequest(duration)
	}
	if f.spans == nil {
		return
	}

	span := otlp.Span{
		TraceID:       tc.TraceID,
		SpanID:        spanID,
		ParentSpanID:  tc.ParentSpanID,
		Name:          methodName,
		Kind:          otlp.SpanKindServer,
		StartTimeNano: uint64(start.UnixNano()),
		EndTimeNano:   uint64(start.Add(duration).UnixNano()),
		Status:        otlp.SpanStatusOK,
		Attributes: []otlp.Attribute{
			{Key: "rpc.system", Value: "grpc"},
			{Key: "rpc.service", Value: serviceName},
			{Key: "rpc.method", Value: methodName},
			{Key: "db.table", Value: table},
		},
	}
	// Enqueue drops and logs on a full batch.
	_ = f.spans.Enqueue(span)
}

// simulateLookup sleeps for the simulated legacy-store latency, returning
// early if the caller goes away.
func (f *Fetcher) simulateLookup(ctx context.Context) {
	delay := minLookupDelay + rand.N(maxLookupDelay-minLookupDelay)
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
