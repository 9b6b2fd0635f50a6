package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor("test")

	m.IncOnlinePlayers()
	m.IncOnlinePlayers()
	m.DecOnlinePlayers()
	if got := testutil.ToFloat64(m.metrics.OnlinePlayers); got != 1 {
		t.Errorf("Expected 1 online player, got %v", got)
	}

	m.IncCommand("rotate")
	m.IncCommand("rotate")
	m.IncCommand("hold")
	if got := testutil.ToFloat64(m.metrics.CommandsApplied.WithLabelValues("rotate")); got != 2 {
		t.Errorf("Expected 2 rotate commands, got %v", got)
	}

	m.AddGarbage(3)
	m.AddGarbage(0)
	if got := testutil.ToFloat64(m.metrics.GarbageLines); got != 3 {
		t.Errorf("Expected 3 garbage lines, got %v", got)
	}

	m.ObserveRound(2 * time.Millisecond)
	if n := testutil.CollectAndCount(m.metrics.RoundLatency); n != 1 {
		t.Errorf("Expected one histogram series, got %d", n)
	}
}

func TestMonitor_SeparateRegistries(t *testing.T) {
	a := NewMonitor("test")
	b := NewMonitor("test")
	a.IncMessagesReceived()
	if got := testutil.ToFloat64(b.metrics.MessagesReceived); got != 0 {
		t.Errorf("monitors should not share metrics, got %v", got)
	}
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("test")
	m.IncDecodeErrors()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "test_decode_errors_total 1") {
		t.Errorf("metrics output missing decode error counter:\n%s", body)
	}
	if !strings.Contains(string(body), "test_uptime_seconds") {
		t.Error("metrics output missing uptime gauge")
	}
}
