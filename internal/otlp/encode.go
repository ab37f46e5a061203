package otlp

import (
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/tordynnar/service-f/internal/hexid"
)

const (
	scopeName    = "github.com/tordynnar/service-f/internal/otlp"
	scopeVersion = "1.0.0"
)

// Encoder assembles the nested resource/scope/record OTLP message graph for
// each telemetry kind. One encoder carries the reporting identity shared by
// every export: a resource with a single service.name attribute and a fixed
// instrumentation scope.
type Encoder struct {
	serviceName string
}

// NewEncoder creates an encoder reporting as serviceName.
func NewEncoder(serviceName string) *Encoder {
	return &Encoder{serviceName: serviceName}
}

func (e *Encoder) resource() *resourcepb.Resource {
	return &resourcepb.Resource{
		Attributes: []*commonpb.KeyValue{stringAttr("service.name", e.serviceName)},
	}
}

func (e *Encoder) scope() *commonpb.InstrumentationScope {
	return &commonpb.InstrumentationScope{
		Name:    scopeName,
		Version: scopeVersion,
	}
}

// TraceRequest builds the export request for a batch of spans.
func (e *Encoder) TraceRequest(spans []Span) *coltracepb.ExportTraceServiceRequest {
	pbSpans := make([]*tracepb.Span, 0, len(spans))
	for i := range spans {
		pbSpans = append(pbSpans, encodeSpan(&spans[i]))
	}
	return &coltracepb.ExportTraceServiceRequest{
		ResourceSpans: []*tracepb.ResourceSpans{{
			Resource: e.resource(),
			ScopeSpans: []*tracepb.ScopeSpans{{
				Scope: e.scope(),
				Spans: pbSpans,
			}},
		}},
	}
}

func encodeSpan(s *Span) *tracepb.Span {
	pb := &tracepb.Span{
		TraceId:           hexid.TraceIDBytes(s.TraceID),
		SpanId:            hexid.SpanIDBytes(s.SpanID),
		Name:              s.Name,
		Kind:              tracepb.Span_SpanKind(s.Kind),
		StartTimeUnixNano: s.StartTimeNano,
		EndTimeUnixNano:   s.EndTimeNano,
		Attributes:        encodeAttributes(s.Attributes),
		Status: &tracepb.Status{
			Code:    tracepb.Status_StatusCode(s.Status),
			Message: s.StatusMessage,
		},
	}
	// Root spans carry a zero-length parent rather than a zeroed buffer.
	if len(s.ParentSpanID) >= hexid.SpanIDHexLen {
		pb.ParentSpanId = hexid.SpanIDBytes(s.ParentSpanID)
	}
	return pb
}

// LogsRequest builds the export request for a batch of log records.
func (e *Encoder) LogsRequest(records []LogRecord) *collogspb.ExportLogsServiceRequest {
	pbRecords := make([]*logspb.LogRecord, 0, len(records))
	for i := range records {
		pbRecords = append(pbRecords, encodeLogRecord(&records[i]))
	}
	return &collogspb.ExportLogsServiceRequest{
		ResourceLogs: []*logspb.ResourceLogs{{
			Resource: e.resource(),
			ScopeLogs: []*logspb.ScopeLogs{{
				Scope:      e.scope(),
				LogRecords: pbRecords,
			}},
		}},
	}
}

func encodeLogRecord(r *LogRecord) *logspb.LogRecord {
	pb := &logspb.LogRecord{
		TimeUnixNano:         r.TimeUnixNano,
		ObservedTimeUnixNano: r.TimeUnixNano,
		SeverityNumber:       logspb.SeverityNumber(r.Severity),
		SeverityText:         r.Severity.Text(),
		Body: &commonpb.AnyValue{
			Value: &commonpb.AnyValue_StringValue{StringValue: r.Body},
		},
		Attributes: encodeAttributes(r.Attributes),
	}
	// Uncorrelated records keep zero-length identifiers.
	if len(r.TraceID) >= hexid.TraceIDHexLen {
		pb.TraceId = hexid.TraceIDBytes(r.TraceID)
	}
	if len(r.SpanID) >= hexid.SpanIDHexLen {
		pb.SpanId = hexid.SpanIDBytes(r.SpanID)
	}
	return pb
}

// MetricsRequest builds the export request for a batch of metrics.
func (e *Encoder) MetricsRequest(metrics []Metric) *colmetricspb.ExportMetricsServiceRequest {
	pbMetrics := make([]*metricspb.Metric, 0, len(metrics))
	for i := range metrics {
		pbMetrics = append(pbMetrics, encodeMetric(&metrics[i]))
	}
	return &colmetricspb.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{{
			Resource: e.resource(),
			ScopeMetrics: []*metricspb.ScopeMetrics{{
				Scope:   e.scope(),
				Metrics: pbMetrics,
			}},
		}},
	}
}

func encodeMetric(m *Metric) *metricspb.Metric {
	pb := &metricspb.Metric{
		Name:        m.Name,
		Description: m.Description,
		Unit:        m.Unit,
	}

	switch m.Kind {
	case MetricCounter:
		pb.Data = &metricspb.Metric_Sum{Sum: &metricspb.Sum{
			DataPoints:             encodeNumberPoints(m.Points),
			AggregationTemporality: metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE,
			IsMonotonic:            true,
		}}
	case MetricGauge:
		pb.Data = &metricspb.Metric_Gauge{Gauge: &metricspb.Gauge{
			DataPoints: encodeNumberPoints(m.Points),
		}}
	case MetricHistogram:
		pb.Data = &metricspb.Metric_Histogram{Histogram: &metricspb.Histogram{
			DataPoints:             encodeHistogramPoints(m.HistogramPoints),
			AggregationTemporality: metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE,
		}}
	}
	return pb
}

func encodeNumberPoints(points []NumberDataPoint) []*metricspb.NumberDataPoint {
	pbPoints := make([]*metricspb.NumberDataPoint, 0, len(points))
	for _, p := range points {
		pb := &metricspb.NumberDataPoint{
			TimeUnixNano: p.TimeUnixNano,
			Attributes:   encodeAttributes(p.Attributes),
		}
		if p.IsDouble {
			pb.Value = &metricspb.NumberDataPoint_AsDouble{AsDouble: p.DoubleValue}
		} else {
			pb.Value = &metricspb.NumberDataPoint_AsInt{AsInt: p.IntValue}
		}
		pbPoints = append(pbPoints, pb)
	}
	return pbPoints
}

func encodeHistogramPoints(points []HistogramDataPoint) []*metricspb.HistogramDataPoint {
	pbPoints := make([]*metricspb.HistogramDataPoint, 0, len(points))
	for _, p := range points {
		sum := p.Sum
		pbPoints = append(pbPoints, &metricspb.HistogramDataPoint{
			TimeUnixNano:   p.TimeUnixNano,
			Count:          p.Count,
			Sum:            &sum,
			BucketCounts:   p.BucketCounts,
			ExplicitBounds: p.Bounds,
			Attributes:     encodeAttributes(p.Attributes),
		})
	}
	return pbPoints
}

func encodeAttributes(attrs []Attribute) []*commonpb.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	kvs := make([]*commonpb.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		kvs = append(kvs, stringAttr(a.Key, a.Value))
	}
	return kvs
}

func stringAttr(key, value string) *commonpb.KeyValue {
	return &commonpb.KeyValue{
		Key: key,
		Value: &commonpb.AnyValue{
			Value: &commonpb.AnyValue_StringValue{StringValue: value},
		},
	}
}
