package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func probe(t *testing.T, h http.HandlerFunc, path string) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, resp
}

func TestLiveHandler(t *testing.T) {
	c := New()
	code, resp := probe(t, c.LiveHandler(), "/live")
	if code != http.StatusOK || resp.Status != "up" {
		t.Errorf("got %d/%s, want 200/up", code, resp.Status)
	}
}

func TestDrainingFailsBothProbes(t *testing.T) {
	c := New()
	c.Register("collector", func() error { return nil })
	c.SetDraining()

	if code, resp := probe(t, c.LiveHandler(), "/live"); code != http.StatusServiceUnavailable || resp.Status != "draining" {
		t.Errorf("live: got %d/%s", code, resp.Status)
	}
	if code, resp := probe(t, c.ReadyHandler(), "/ready"); code != http.StatusServiceUnavailable || resp.Status != "draining" {
		t.Errorf("ready: got %d/%s", code, resp.Status)
	}
}

func TestReadyHandlerRunsChecks(t *testing.T) {
	c := New()
	c.Register("collector", func() error { return nil })
	c.Register("store", func() error { return errors.New("connection refused") })

	code, resp := probe(t, c.ReadyHandler(), "/ready")
	if code != http.StatusServiceUnavailable || resp.Status != "down" {
		t.Fatalf("got %d/%s, want 503/down", code, resp.Status)
	}
	if len(resp.Components) != 2 {
		t.Fatalf("got %d components, want 2", len(resp.Components))
	}
	// Components come back sorted by name.
	if resp.Components[0].Name != "collector" || resp.Components[0].Status != "up" {
		t.Errorf("collector = %+v", resp.Components[0])
	}
	if resp.Components[1].Name != "store" || resp.Components[1].Error != "connection refused" {
		t.Errorf("store = %+v", resp.Components[1])
	}
}

func TestReadyHandlerNoChecks(t *testing.T) {
	c := New()
	code, resp := probe(t, c.ReadyHandler(), "/ready")
	if code != http.StatusOK || resp.Status != "up" {
		t.Errorf("got %d/%s, want 200/up", code, resp.Status)
	}
}
