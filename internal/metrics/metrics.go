// Package metrics defines the Prometheus instruments used by the API client
// and the simulated service. Label values are bounded: operation names and
// outcome kinds only, never ids or tokens.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Client records API client calls.
type Client struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewClient registers the client instruments on reg. A nil reg yields
// instruments that are never exported.
func NewClient(reg prometheus.Registerer) *Client {
	factory := promauto.With(reg)
	return &Client{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidfriends_client_calls_total",
			Help: "Total number of API client calls, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidfriends_client_call_duration_seconds",
			Help:    "API client call latency, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Observe records one call. It is safe on a nil receiver.
func (c *Client) Observe(operation, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.calls.WithLabelValues(operation, outcome).Inc()
	c.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Calls exposes the call counter for tests and exporters.
func (c *Client) Calls() *prometheus.CounterVec {
	return c.calls
}

// Server records requests handled by the simulated service.
type Server struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewServer registers the service instruments on reg.
func NewServer(reg prometheus.Registerer) *Server {
	factory := promauto.With(reg)
	return &Server{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vidfriends_api_requests_total",
			Help: "Total number of HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidfriends_api_request_duration_seconds",
			Help:    "HTTP request latency, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Observe records one served request. It is safe on a nil receiver.
func (s *Server) Observe(route string, status int, elapsed time.Duration) {
	if s == nil {
		return
	}
	s.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	s.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Requests exposes the request counter for tests and exporters.
func (s *Server) Requests() *prometheus.CounterVec {
	return s.requests
}
