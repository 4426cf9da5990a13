package healthprobe

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
)

func probe(t *testing.T, handler http.HandlerFunc) (int, Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec.Code, resp
}

func TestHealth_AlwaysOK(t *testing.T) {
	h := New()

	code, resp := probe(t, h.Health())
	if code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected healthy, got %q", resp.Status)
	}
}

func TestReady_NotReadyUntilSet(t *testing.T) {
	h := New()

	code, resp := probe(t, h.Ready())
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before SetReady, got %d", code)
	}
	if resp.Status != "not_ready" {
		t.Errorf("expected not_ready, got %q", resp.Status)
	}

	h.SetReady(true)

	code, resp = probe(t, h.Ready())
	if code != http.StatusOK {
		t.Errorf("expected 200 after SetReady, got %d", code)
	}
	if resp.Status != "ready" {
		t.Errorf("expected ready, got %q", resp.Status)
	}
}

func TestReady_FailingCheck(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.Register(Check{Name: "source", Probe: func() error { return errors.New("down") }})
	h.Register(Check{Name: "cache", Probe: func() error { return nil }})

	code, resp := probe(t, h.Ready())
	if code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with failing check, got %d", code)
	}
	if resp.Checks["source"] != "down" {
		t.Errorf("expected failing source check, got %q", resp.Checks["source"])
	}
	if resp.Checks["cache"] != "ok" {
		t.Errorf("expected passing cache check, got %q", resp.Checks["cache"])
	}
}
