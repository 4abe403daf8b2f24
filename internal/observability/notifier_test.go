package observability

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackNotifier_NoAlerts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	if err := n.Notify(nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.Notify([]Alert{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts")
	}
}

func TestSlackNotifier_SendsAlerts(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	at := time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC)
	alerts := []Alert{
		{ID: "feature-minimum-2025-03-03", Severity: SeverityHigh, Message: "Feature blocks below minimum: 1/2 this week", TriggeredAt: at},
		{ID: "chaos-2025-03-03", Severity: SeverityLow, Message: "Chaos work at 60.0% of the week, target 5.0%", TriggeredAt: at},
	}
	if err := NewSlackNotifier(srv.URL).Notify(alerts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(receivedContentType, "application/json") {
		t.Errorf("content type = %q", receivedContentType)
	}
	var payload struct {
		Text   string           `json:"text"`
		Blocks []map[string]any `json:"blocks"`
	}
	if err := json.Unmarshal(receivedBody, &payload); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	if payload.Text != "dayflow: 2 balance alert(s)" {
		t.Errorf("text = %q", payload.Text)
	}
	// header, section, divider, section
	if len(payload.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0]["type"] != "header" || payload.Blocks[2]["type"] != "divider" {
		t.Errorf("unexpected block layout: %v", payload.Blocks)
	}
	body := string(receivedBody)
	for _, want := range []string{"[HIGH]", "[LOW]", "Feature blocks below minimum", "2025-03-05 10:30 UTC"} {
		if !strings.Contains(body, want) {
			t.Errorf("payload missing %q", want)
		}
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).Notify([]Alert{{Severity: SeverityMedium, Message: "x"}})
	if err == nil {
		t.Fatal("expected an error for a 500 response")
	}
}

func TestSeverityEmoji(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []AlertSeverity{SeverityHigh, SeverityMedium, SeverityLow, "other"} {
		e := severityEmoji(s)
		if e == "" || seen[e] {
			t.Errorf("emoji for %q = %q", s, e)
		}
		seen[e] = true
	}
}
