// Package tracectx extracts W3C trace-context correlation identifiers from
// inbound gRPC call metadata.
package tracectx

import (
	"google.golang.org/grpc/metadata"

	"github.com/tordynnar/service-f/internal/hexid"
)

// Header is the metadata key carrying the W3C trace context, formatted as
// version-traceid-spanid-flags (e.g. 00-<32 hex>-<16 hex>-01).
const Header = "traceparent"

// minHeaderLen is the shortest value that still contains a full trace ID
// and parent span ID at their fixed offsets.
const minHeaderLen = 55

// Context is the correlation identity of one inbound call.
type Context struct {
	// TraceID is the 32-hex-character trace identifier, taken from the
	// caller's traceparent header or freshly generated when absent.
	TraceID string
	// ParentSpanID is the caller's 16-hex-character span identifier.
	// Empty when the call carried no usable trace context.
	ParentSpanID string
}

// Extract reads the traceparent entry from md and returns the caller's
// trace ID and parent span ID. A missing or too-short header yields a fresh
// random trace ID and an empty parent. Headers of sufficient length are
// accepted without validating the version, flags, or hex validity of the
// extracted substrings. Extract never fails.
func Extract(md metadata.MD) Context {
	for _, value := range md.Get(Header) {
		if len(value) < minHeaderLen {
			continue
		}
		return Context{
			TraceID:      value[3:35],
			ParentSpanID: value[36:52],
		}
	}
	return Context{TraceID: hexid.NewTraceID()}
}
