package stats

import (
	"fmt"
	"sync"
	"testing"
)

func TestRecordRequestCounts(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("users", "trace-1")
	c.RecordRequest("users", "trace-2")
	c.RecordRequest("orders", "trace-1")
	c.RecordError()

	snap := c.Stats()
	if snap.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", snap.TotalRequests)
	}
	if snap.TotalErrors != 1 {
		t.Errorf("TotalErrors = %d, want 1", snap.TotalErrors)
	}
	if snap.PerTable["users"] != 2 || snap.PerTable["orders"] != 1 {
		t.Errorf("PerTable = %v", snap.PerTable)
	}
}

func TestUniqueTracesEstimate(t *testing.T) {
	c := NewCollector()
	// 1000 distinct traces, each recorded twice.
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("trace-%04d", i)
		c.RecordRequest("users", id)
		c.RecordRequest("orders", id)
	}

	got := c.UniqueTraces()
	// HLL is approximate; allow 5% error at this cardinality.
	if got < 950 || got > 1050 {
		t.Errorf("UniqueTraces = %d, want ~1000", got)
	}
}

func TestResetWindowClearsTracesNotCounters(t *testing.T) {
	c := NewCollector()
	c.RecordRequest("users", "trace-1")
	c.ResetWindow()

	if got := c.UniqueTraces(); got != 0 {
		t.Errorf("UniqueTraces after reset = %d, want 0", got)
	}
	if snap := c.Stats(); snap.TotalRequests != 1 {
		t.Errorf("TotalRequests after reset = %d, want 1", snap.TotalRequests)
	}
}

func TestConcurrentRecording(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.RecordRequest("users", fmt.Sprintf("trace-%d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	if snap := c.Stats(); snap.TotalRequests != 800 {
		t.Errorf("TotalRequests = %d, want 800", snap.TotalRequests)
	}
}
