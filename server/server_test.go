package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/plenumwatch/knesset-presence/bot"
)

func testStatus() bot.Status {
	return bot.Status{
		LastCycle:     time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		LastOutcome:   bot.OutcomeUnchanged,
		PresentCount:  42,
		LastMessageID: 1234,
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Correlation-ID") == "" {
		t.Errorf("missing X-Correlation-ID header")
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()
	var got bot.Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if got.PresentCount != 42 || got.LastMessageID != 1234 || got.LastOutcome != bot.OutcomeUnchanged {
		t.Errorf("status payload = %+v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCorrelationHeaderReused(t *testing.T) {
	srv := httptest.NewServer(NewMux(testStatus))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Correlation-ID", "fixed-id")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("X-Correlation-ID"); got != "fixed-id" {
		t.Errorf("correlation id = %q, want fixed-id", got)
	}
}
