package metrics

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCollectorCountsOutcomes(t *testing.T) {
	c := NewCollector()

	c.RunStarted()
	c.RunFinished("echo", OutcomeSuccess, 120*time.Millisecond)
	c.RunStarted()
	c.RunFinished("sleep", OutcomeTimeout, 2*time.Second)

	var buf bytes.Buffer
	if err := c.WriteText(&buf); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, `procbox_runs_total{outcome="success",task="echo"} 1`) {
		t.Errorf("Missing success counter, got:\n%s", out)
	}
	if !strings.Contains(out, `procbox_runs_total{outcome="timeout",task="sleep"} 1`) {
		t.Errorf("Missing timeout counter, got:\n%s", out)
	}
	// Both runs finished, so no active children remain
	if !strings.Contains(out, "procbox_active_children 0") {
		t.Errorf("Active gauge should be back to 0, got:\n%s", out)
	}
}

func TestCollectorsAreIsolated(t *testing.T) {
	a := NewCollector()
	b := NewCollector()

	a.RunStarted()
	a.RunFinished("echo", OutcomeSuccess, time.Millisecond)

	var buf bytes.Buffer
	if err := b.WriteText(&buf); err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}
	if strings.Contains(buf.String(), `task="echo"`) {
		t.Error("Collectors must not share a registry")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector()
	c.RunStarted()
	c.RunFinished("echo", OutcomeSuccess, time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "procbox_runs_total") {
		t.Errorf("Handler should expose run counters, got:\n%s", rr.Body.String())
	}
}
