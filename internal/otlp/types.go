// Package otlp implements batching telemetry exporters that ship spans, log
// records, and metrics to an OTLP collector over unary gRPC calls. The wire
// messages are assembled by hand from the OTLP protobuf types; no
// instrumentation SDK sits between the application and the collector.
package otlp

// Attribute is a single string-valued telemetry attribute. Key order is
// preserved through encoding, so attributes are carried as a slice rather
// than a map.
type Attribute struct {
	Key   string
	Value string
}

// SpanKind mirrors the OTLP span kind enumeration.
type SpanKind int32

const (
	SpanKindUnspecified SpanKind = iota
	SpanKindInternal
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

// SpanStatus mirrors the OTLP span status code enumeration.
type SpanStatus int32

const (
	SpanStatusUnset SpanStatus = iota
	SpanStatusOK
	SpanStatusError
)

// Span is one completed trace span awaiting export. Identifiers are held in
// their hex text form until encoding. Once passed to Exporter.Enqueue the
// value belongs to the exporter; spans are passed by value so the producing
// call retains nothing to mutate.
type Span struct {
	TraceID       string // 32 hex chars
	SpanID        string // 16 hex chars
	ParentSpanID  string // 16 hex chars, empty for root spans
	Name          string
	Kind          SpanKind
	StartTimeNano uint64
	EndTimeNano   uint64
	Status        SpanStatus
	StatusMessage string
	Attributes    []Attribute
}

// Severity mirrors the OTLP log severity numbers.
type Severity int32

const (
	SeverityUnspecified Severity = 0
	SeverityTrace       Severity = 1
	SeverityDebug       Severity = 5
	SeverityInfo        Severity = 9
	SeverityWarn        Severity = 13
	SeverityError       Severity = 17
	SeverityFatal       Severity = 21
)

// Text returns the OTLP severity text label for s.
func (s Severity) Text() string {
	switch s {
	case SeverityTrace:
		return "TRACE"
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNSPECIFIED"
	}
}

// LogRecord is one application log entry awaiting export. TraceID and SpanID
// correlate the record with a span and may be empty.
type LogRecord struct {
	TraceID      string
	SpanID       string
	Severity     Severity
	Body         string
	TimeUnixNano uint64
	Attributes   []Attribute
}

// MetricKind selects the OTLP data shape a Metric is encoded as.
type MetricKind int32

const (
	// MetricCounter is a cumulative, monotonic sum.
	MetricCounter MetricKind = iota
	// MetricGauge is an instantaneous value.
	MetricGauge
	// MetricHistogram is a cumulative histogram.
	MetricHistogram
)

// NumberDataPoint is one counter or gauge sample. The reporter's declared
// representation (int vs double) is preserved through encoding via IsDouble.
type NumberDataPoint struct {
	TimeUnixNano uint64
	IntValue     int64
	DoubleValue  float64
	IsDouble     bool
	Attributes   []Attribute
}

// HistogramDataPoint is one histogram sample. By the usual OTLP convention
// Bounds carries one fewer entry than BucketCounts; the encoder passes both
// through as provided without checking that relationship.
type HistogramDataPoint struct {
	TimeUnixNano uint64
	Count        uint64
	Sum          float64
	BucketCounts []uint64
	Bounds       []float64
	Attributes   []Attribute
}

// Metric is one metric definition with its data points. Points is used for
// counter/gauge kinds, HistogramPoints for histograms.
type Metric struct {
	Name            string
	Description     string
	Unit            string
	Kind            MetricKind
	Points          []NumberDataPoint
	HistogramPoints []HistogramDataPoint
}
