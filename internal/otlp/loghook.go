package otlp

import (
	"fmt"
	"sort"
	"time"

	"github.com/tordynnar/service-f/internal/logging"
)

// NewLogHook returns a logging.LogHook that turns every application log
// entry into a LogRecord on exp's pending batch. trace_id and span_id
// attributes are lifted into the record's correlation fields; remaining
// attributes are carried in key order.
//
// The hook appends without going back through the logging package, so log
// entries emitted by the exporter itself (export failures, drops) cannot
// re-enter the hook recursively. When the batch is full the record is
// dropped and only the drop counter advances.
func NewLogHook(exp *Exporter[LogRecord]) logging.LogHook {
	if exp == nil {
		return nil
	}

	return func(level logging.Level, msg string, attrs map[string]interface{}) {
		record := LogRecord{
			Severity:     Severity(logging.SeverityNumber(level)),
			Body:         msg,
			TimeUnixNano: uint64(time.Now().UnixNano()),
		}

		if len(attrs) > 0 {
			keys := make([]string, 0, len(attrs))
			for k := range attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				v := toString(attrs[k])
				switch k {
				case "trace_id":
					record.TraceID = v
				case "span_id":
					record.SpanID = v
				default:
					record.Attributes = append(record.Attributes, Attribute{Key: k, Value: v})
				}
			}
		}

		if err := exp.queue.Append(record); err != nil {
			droppedItemsTotal.WithLabelValues(exp.signal).Inc()
		}
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
