// Package hexid converts between the hexadecimal text form of trace and
// span identifiers and their raw byte representation, and generates fresh
// random identifiers. Trace IDs are 32 hex characters (16 bytes), span IDs
// are 16 hex characters (8 bytes).
package hexid

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"
)

const (
	// TraceIDHexLen is the length of a trace ID in hex characters.
	TraceIDHexLen = 32
	// SpanIDHexLen is the length of a span ID in hex characters.
	SpanIDHexLen = 16

	traceIDByteLen = 16
	spanIDByteLen  = 8
)

// TraceIDBytes converts a 32-hex-character trace ID to its 16-byte form.
// Inputs that are too short or not valid hex yield an all-zero buffer;
// the conversion never fails.
func TraceIDBytes(id string) []byte {
	return idBytes(id, traceIDByteLen)
}

// SpanIDBytes converts a 16-hex-character span ID to its 8-byte form.
// Inputs that are too short or not valid hex yield an all-zero buffer.
func SpanIDBytes(id string) []byte {
	return idBytes(id, spanIDByteLen)
}

func idBytes(id string, n int) []byte {
	buf := make([]byte, n)
	if len(id) < n*2 {
		return buf
	}
	if _, err := hex.Decode(buf, []byte(id[:n*2])); err != nil {
		return make([]byte, n)
	}
	return buf
}

// ToHex converts a raw identifier buffer back to its lowercase hex form.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// NewTraceID returns a fresh random 32-hex-character trace ID.
func NewTraceID() string {
	return fmt.Sprintf("%016x%016x", rand.Uint64(), rand.Uint64())
}

// NewSpanID returns a fresh random 16-hex-character span ID.
func NewSpanID() string {
	return fmt.Sprintf("%016x", rand.Uint64())
}
