package otlp

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/tordynnar/service-f/internal/logging"
)

var (
	exportRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "service_f_export_requests_total",
		Help: "Total number of OTLP export calls",
	}, []string{"signal"})

	exportErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "service_f_export_errors_total",
		Help: "Total number of failed OTLP export calls by gRPC code",
	}, []string{"signal", "code"})

	exportedItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "service_f_exported_items_total",
		Help: "Total number of telemetry items successfully exported",
	}, []string{"signal"})

	droppedItemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "service_f_dropped_items_total",
		Help: "Total number of telemetry items dropped because the pending batch was full",
	}, []string{"signal"})
)

func init() {
	prometheus.MustRegister(exportRequestsTotal)
	prometheus.MustRegister(exportErrorsTotal)
	prometheus.MustRegister(exportedItemsTotal)
	prometheus.MustRegister(droppedItemsTotal)
}

// Config holds the settings shared by every exporter kind.
type Config struct {
	// Endpoint is the collector endpoint (host:port, optionally prefixed
	// with http:// or https://; the prefix is stripped).
	Endpoint string
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string
	// FlushInterval is the background flush period (default: 1s).
	FlushInterval time.Duration
	// Timeout is the per-export-call deadline (default: 5s).
	Timeout time.Duration
	// BatchCapacity bounds the pending batch (default: 64).
	BatchCapacity int
	// Compression selects the gRPC call compression: "gzip", "zstd", or
	// empty for none.
	Compression string
}

func (c Config) withDefaults() Config {
	if c.FlushInterval <= 0 {
		c.FlushInterval = time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.BatchCapacity <= 0 {
		c.BatchCapacity = DefaultBatchCapacity
	}
	return c
}

// sendFunc performs one unary export call for a drained batch.
type sendFunc[T any] func(ctx context.Context, batch []T) error

// Exporter is a batching exporter for one telemetry kind. Items accumulate
// in a bounded pending batch; a background loop periodically drains the
// batch and ships it to the collector in a single unary call. Failed exports
// are logged and discarded; there is no retry and no re-queueing, and
// nothing here ever propagates back to the producing call.
type Exporter[T any] struct {
	signal   string
	queue    *BatchQueue[T]
	send     sendFunc[T]
	conn     *grpc.ClientConn
	interval time.Duration
	timeout  time.Duration
	doneChan chan struct{}
}

func newExporter[T any](signal string, cfg Config, conn *grpc.ClientConn, send sendFunc[T]) *Exporter[T] {
	return &Exporter[T]{
		signal:   signal,
		queue:    NewBatchQueue[T](cfg.BatchCapacity),
		send:     send,
		conn:     conn,
		interval: cfg.FlushInterval,
		timeout:  cfg.Timeout,
		doneChan: make(chan struct{}),
	}
}

// NewSpanExporter creates an exporter shipping spans to the collector's
// trace service over its own long-lived connection.
func NewSpanExporter(cfg Config) (*Exporter[Span], error) {
	cfg = cfg.withDefaults()
	conn, callOpts, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	client := coltracepb.NewTraceServiceClient(conn)
	enc := NewEncoder(cfg.ServiceName)
	return newExporter("traces", cfg, conn, func(ctx context.Context, batch []Span) error {
		_, err := client.Export(ctx, enc.TraceRequest(batch), callOpts...)
		return err
	}), nil
}

// NewLogExporter creates an exporter shipping log records to the collector's
// logs service over its own long-lived connection.
func NewLogExporter(cfg Config) (*Exporter[LogRecord], error) {
	cfg = cfg.withDefaults()
	conn, callOpts, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	client := collogspb.NewLogsServiceClient(conn)
	enc := NewEncoder(cfg.ServiceName)
	return newExporter("logs", cfg, conn, func(ctx context.Context, batch []LogRecord) error {
		_, err := client.Export(ctx, enc.LogsRequest(batch), callOpts...)
		return err
	}), nil
}

func dial(cfg Config) (*grpc.ClientConn, []grpc.CallOption, error) {
	target := ParseEndpoint(cfg.Endpoint)
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("create collector connection to %s: %w", target, err)
	}

	var callOpts []grpc.CallOption
	switch cfg.Compression {
	case "", "none":
	case "gzip", "zstd":
		callOpts = append(callOpts, grpc.UseCompressor(cfg.Compression))
	default:
		_ = conn.Close()
		return nil, nil, fmt.Errorf("unsupported export compression: %s", cfg.Compression)
	}
	return conn, callOpts, nil
}

// Enqueue copies item into the pending batch. When the batch is at capacity
// the item is dropped and ErrBatchFull returned; the caller is expected to
// continue regardless.
func (e *Exporter[T]) Enqueue(item T) error {
	if err := e.queue.Append(item); err != nil {
		droppedItemsTotal.WithLabelValues(e.signal).Inc()
		logging.Warn("pending batch full, dropping item", logging.F("signal", e.signal))
		return err
	}
	return nil
}

// Start runs the background flush loop until ctx is canceled, then performs
// a final flush and closes the done channel. Run it in its own goroutine.
func (e *Exporter[T]) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.Flush(context.Background())
			close(e.doneChan)
			return
		case <-ticker.C:
			e.Flush(ctx)
		}
	}
}

// Flush synchronously drains the pending batch and performs one export call,
// independent of the periodic timer. The drain happens under the queue lock;
// encoding and the network call do not, so producers are never blocked by
// export I/O. The batch is discarded whether or not the call succeeds.
func (e *Exporter[T]) Flush(ctx context.Context) {
	batch := e.queue.Drain()
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	exportRequestsTotal.WithLabelValues(e.signal).Inc()
	if err := e.send(ctx, batch); err != nil {
		code := status.Code(err)
		exportErrorsTotal.WithLabelValues(e.signal, code.String()).Inc()
		logging.Error("export failed, batch dropped", logging.F(
			"signal", e.signal,
			"code", code.String(),
			"error", err.Error(),
			"batch_size", len(batch),
		))
		return
	}
	exportedItemsTotal.WithLabelValues(e.signal).Add(float64(len(batch)))
}

// Ready reports whether the collector connection is usable. grpc-go connects
// lazily, so Idle and Connecting both count as usable.
func (e *Exporter[T]) Ready() error {
	return connReady(e.conn)
}

// Wait blocks until the background loop has exited after its final flush.
func (e *Exporter[T]) Wait() {
	<-e.doneChan
}

// Close releases the collector connection. Call after Wait.
func (e *Exporter[T]) Close() error {
	return e.conn.Close()
}

func connReady(conn *grpc.ClientConn) error {
	switch s := conn.GetState(); s {
	case connectivity.Idle, connectivity.Connecting, connectivity.Ready:
		return nil
	default:
		return fmt.Errorf("collector connection %s", s)
	}
}
