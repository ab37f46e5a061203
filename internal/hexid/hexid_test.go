package hexid

import (
	"bytes"
	"strings"
	"testing"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ids := []string{
		strings.Repeat("a", 32),
		"0123456789abcdef0123456789abcdef",
		"ffffffffffffffffffffffffffffffff",
		"00000000000000000000000000000001",
	}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			b := TraceIDBytes(id)
			if len(b) != 16 {
				t.Fatalf("expected 16 bytes, got %d", len(b))
			}
			if got := ToHex(b); got != id {
				t.Errorf("round trip mismatch: got %s, want %s", got, id)
			}
		})
	}
}

func TestSpanIDRoundTrip(t *testing.T) {
	id := "bbbbbbbbbbbbbbbb"
	b := SpanIDBytes(id)
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
	if got := ToHex(b); got != id {
		t.Errorf("round trip mismatch: got %s, want %s", got, id)
	}
}

func TestInvalidInputYieldsZeroBuffer(t *testing.T) {
	zero16 := make([]byte, 16)
	zero8 := make([]byte, 8)

	t.Run("short trace ID", func(t *testing.T) {
		if got := TraceIDBytes("abcd"); !bytes.Equal(got, zero16) {
			t.Errorf("expected zero buffer, got %x", got)
		}
	})

	t.Run("empty span ID", func(t *testing.T) {
		if got := SpanIDBytes(""); !bytes.Equal(got, zero8) {
			t.Errorf("expected zero buffer, got %x", got)
		}
	})

	t.Run("non-hex characters", func(t *testing.T) {
		if got := TraceIDBytes(strings.Repeat("z", 32)); !bytes.Equal(got, zero16) {
			t.Errorf("expected zero buffer, got %x", got)
		}
	})
}

func TestNewTraceID(t *testing.T) {
	a := NewTraceID()
	b := NewTraceID()
	if len(a) != TraceIDHexLen {
		t.Fatalf("expected %d chars, got %d", TraceIDHexLen, len(a))
	}
	if a == b {
		t.Error("consecutive trace IDs should differ")
	}
	if a != strings.ToLower(a) {
		t.Error("trace ID should be lowercase hex")
	}
}

func TestNewSpanID(t *testing.T) {
	id := NewSpanID()
	if len(id) != SpanIDHexLen {
		t.Fatalf("expected %d chars, got %d", SpanIDHexLen, len(id))
	}
	if got := ToHex(SpanIDBytes(id)); got != id {
		t.Errorf("generated span ID does not round trip: %s != %s", got, id)
	}
}
