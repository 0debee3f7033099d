// Package metric provides Prometheus metrics for the ingress server.
//
// It exposes metrics in Prometheus format for monitoring connection
// admission, firewall anomalies, request rates and response status codes.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics, backed by a dedicated
// prometheus.Registry rather than the global default so an embedding
// application can run more than one server instance without metric
// name collisions.
type Registry struct {
	reg *prometheus.Registry

	// Connection admission
	ConnectionsRejected Counter // closed before TLS: over the concurrency cap
	ConnectionsFiltered Counter // closed before TLS: IP allow/deny-list match
	ConnectionsActive   Gauge

	// Firewall anomaly counters (spec §4.4 — counters only, no blocking here)
	FirewallOversizedHeader    Counter
	FirewallMalformedFrame     Counter
	FirewallRequestLineTooLong Counter

	// Rate limiting
	RateLimitSoftThrottled Counter
	RateLimitHardRejected  Counter

	// Request/response metering
	Requests      Counter
	ResponseCodes *ResponseCodeCounters

	RequestDuration Histogram
}

// ResponseCodeCounters holds one named counter per status code the
// response pipeline recognizes, plus a catch-all for everything else.
type ResponseCodeCounters struct {
	OK              Counter // 200
	Created         Counter // 201
	Accepted        Counter // 202
	NoContent       Counter // 204
	BadRequest      Counter // 400
	Unauthorized    Counter // 401
	Forbidden       Counter // 403
	NotFound        Counter // 404
	TooManyRequests Counter // 429
	ServerError     Counter // 500
	Other           Counter // anything unrecognized
}

// Counter is a cumulative metric that only increases.
type Counter interface {
	Inc()
	Add(float64)
}

// Gauge is a metric that can go up and down.
type Gauge interface {
	Set(float64)
	Inc()
	Dec()
	Add(float64)
	Sub(float64)
}

// Histogram samples observations and counts them in buckets.
type Histogram interface {
	Observe(float64)
}

// NewRegistry creates a new metrics registry with every ingress counter
// pre-registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Registry{
		reg: reg,

		ConnectionsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_connections_rejected_total",
			Help: "Connections closed before TLS because the concurrency cap was reached.",
		}),
		ConnectionsFiltered: f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_connections_filtered_total",
			Help: "Connections closed before TLS because of an IP allow/deny-list match.",
		}),
		ConnectionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "ingress_connections_active",
			Help: "Currently open connections.",
		}),

		FirewallOversizedHeader: f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_firewall_oversized_header_total",
			Help: "Requests rejected for an oversized header.",
		}),
		FirewallMalformedFrame: f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_firewall_malformed_frame_total",
			Help: "Connections flagged for a malformed protocol frame.",
		}),
		FirewallRequestLineTooLong: f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_firewall_request_line_too_long_total",
			Help: "Requests flagged for an oversized request line.",
		}),

		RateLimitSoftThrottled: f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_rate_limit_soft_throttled_total",
			Help: "Requests answered 429 after exceeding the soft per-IP rate.",
		}),
		RateLimitHardRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_rate_limit_hard_rejected_total",
			Help: "Connections closed outright after exceeding the hard per-IP rate.",
		}),

		Requests: f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_requests_total",
			Help: "Every request received, regardless of outcome.",
		}),
		ResponseCodes: newResponseCodeCounters(f),
		RequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingress_request_duration_seconds",
			Help:    "Request handling latency, from route match to response write.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func newResponseCodeCounters(f promauto.Factory) *ResponseCodeCounters {
	// Every counter shares one name, so they must share one Help string:
	// the registry rejects same-named descriptors whose help differs.
	counter := func(code string) Counter {
		return f.NewCounter(prometheus.CounterOpts{
			Name: "ingress_response_codes_total",
			Help: "Responses by status code; code=\"other\" counts any unrecognized status.",
			ConstLabels: prometheus.Labels{
				"code": code,
			},
		})
	}
	return &ResponseCodeCounters{
		OK:              counter("200"),
		Created:         counter("201"),
		Accepted:        counter("202"),
		NoContent:       counter("204"),
		BadRequest:      counter("400"),
		Unauthorized:    counter("401"),
		Forbidden:       counter("403"),
		NotFound:        counter("404"),
		TooManyRequests: counter("429"),
		ServerError:     counter("500"),
		Other:           counter("other"),
	}
}

// ForStatus returns the named counter for a recognized status code, or
// the catch-all counter for anything else.
func (c *ResponseCodeCounters) ForStatus(code int) Counter {
	switch code {
	case 200:
		return c.OK
	case 201:
		return c.Created
	case 202:
		return c.Accepted
	case 204:
		return c.NoContent
	case 400:
		return c.BadRequest
	case 401:
		return c.Unauthorized
	case 403:
		return c.Forbidden
	case 404:
		return c.NotFound
	case 429:
		return c.TooManyRequests
	case 500:
		return c.ServerError
	default:
		return c.Other
	}
}

// Underlying returns the prometheus.Registry backing this Registry, for
// registering additional application-defined collectors.
func (r *Registry) Underlying() *prometheus.Registry {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
