package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClientObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClient(reg)

	m.Observe("login", "ok", 10*time.Millisecond)
	m.Observe("login", "ok", 20*time.Millisecond)
	m.Observe("video", "not_found", time.Millisecond)

	if got := testutil.ToFloat64(m.Calls().WithLabelValues("login", "ok")); got != 2 {
		t.Fatalf("expected 2 login calls got %v", got)
	}
	if got := testutil.ToFloat64(m.Calls().WithLabelValues("video", "not_found")); got != 1 {
		t.Fatalf("expected 1 video call got %v", got)
	}

	if n, err := testutil.GatherAndCount(reg, "vidfriends_client_call_duration_seconds"); err != nil || n != 2 {
		t.Fatalf("expected 2 histogram series got %d (err %v)", n, err)
	}
}

func TestServerObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServer(reg)

	m.Observe("/dashboard", http.StatusOK, time.Millisecond)
	m.Observe("/dashboard", http.StatusUnauthorized, time.Millisecond)

	if got := testutil.ToFloat64(m.Requests().WithLabelValues("/dashboard", "401")); got != 1 {
		t.Fatalf("expected 1 unauthorized request got %v", got)
	}
}

func TestNilReceiversAreSafe(t *testing.T) {
	var c *Client
	c.Observe("login", "ok", time.Second)
	var s *Server
	s.Observe("/", http.StatusOK, time.Second)
}
