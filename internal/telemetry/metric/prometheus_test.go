// Package metric provides Prometheus metrics for the ingress server.
package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.Underlying() == nil {
		t.Error("Underlying() returned nil")
	}
	if r.ConnectionsRejected == nil {
		t.Error("ConnectionsRejected is nil")
	}
	if r.ResponseCodes == nil {
		t.Error("ResponseCodes is nil")
	}
	if r.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d, want %d", rec.Code, http.StatusOK)
	}

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading scrape body: %v", err)
	}
	return string(body)
}

func TestRegistry_Handler_ScrapesConnectionCounters(t *testing.T) {
	r := NewRegistry()
	r.ConnectionsRejected.Inc()
	r.ConnectionsRejected.Inc()
	r.ConnectionsFiltered.Inc()
	r.ConnectionsActive.Set(3)

	body := scrape(t, r.Handler())

	if !strings.Contains(body, "ingress_connections_rejected_total 2") {
		t.Error("scrape missing ingress_connections_rejected_total 2")
	}
	if !strings.Contains(body, "ingress_connections_filtered_total 1") {
		t.Error("scrape missing ingress_connections_filtered_total 1")
	}
	if !strings.Contains(body, "ingress_connections_active 3") {
		t.Error("scrape missing ingress_connections_active 3")
	}
}

func TestRegistry_Handler_ScrapesFirewallCounters(t *testing.T) {
	r := NewRegistry()
	r.FirewallOversizedHeader.Inc()
	r.FirewallMalformedFrame.Add(2)
	r.FirewallRequestLineTooLong.Inc()

	body := scrape(t, r.Handler())

	if !strings.Contains(body, "ingress_firewall_oversized_header_total 1") {
		t.Error("scrape missing ingress_firewall_oversized_header_total 1")
	}
	if !strings.Contains(body, "ingress_firewall_malformed_frame_total 2") {
		t.Error("scrape missing ingress_firewall_malformed_frame_total 2")
	}
	if !strings.Contains(body, "ingress_firewall_request_line_too_long_total 1") {
		t.Error("scrape missing ingress_firewall_request_line_too_long_total 1")
	}
}

func TestRegistry_Handler_ScrapesRateLimitCounters(t *testing.T) {
	r := NewRegistry()
	r.RateLimitSoftThrottled.Inc()
	r.RateLimitHardRejected.Inc()

	body := scrape(t, r.Handler())

	if !strings.Contains(body, "ingress_rate_limit_soft_throttled_total 1") {
		t.Error("scrape missing ingress_rate_limit_soft_throttled_total 1")
	}
	if !strings.Contains(body, "ingress_rate_limit_hard_rejected_total 1") {
		t.Error("scrape missing ingress_rate_limit_hard_rejected_total 1")
	}
}

func TestRegistry_Handler_ScrapesResponseCodes(t *testing.T) {
	r := NewRegistry()
	r.Requests.Inc()
	r.ResponseCodes.ForStatus(200).Inc()
	r.ResponseCodes.ForStatus(200).Inc()
	r.ResponseCodes.ForStatus(404).Inc()
	r.ResponseCodes.ForStatus(418).Inc()

	body := scrape(t, r.Handler())

	if !strings.Contains(body, `ingress_requests_total 1`) {
		t.Error("scrape missing ingress_requests_total 1")
	}
	if !strings.Contains(body, `ingress_response_codes_total{code="200"} 2`) {
		t.Error("scrape missing ingress_response_codes_total{code=\"200\"} 2")
	}
	if !strings.Contains(body, `ingress_response_codes_total{code="404"} 1`) {
		t.Error("scrape missing ingress_response_codes_total{code=\"404\"} 1")
	}
	if !strings.Contains(body, `ingress_response_codes_total{code="other"} 1`) {
		t.Error("scrape missing ingress_response_codes_total{code=\"other\"} 1")
	}
}

func TestRegistry_Handler_ScrapesRequestDuration(t *testing.T) {
	r := NewRegistry()
	r.RequestDuration.Observe(0.02)
	r.RequestDuration.Observe(0.5)

	body := scrape(t, r.Handler())

	if !strings.Contains(body, "ingress_request_duration_seconds_bucket") {
		t.Error("scrape missing ingress_request_duration_seconds_bucket")
	}
	if !strings.Contains(body, "ingress_request_duration_seconds_count 2") {
		t.Error("scrape missing ingress_request_duration_seconds_count 2")
	}
}

func TestRegistry_Underlying_AcceptsAdditionalCollectors(t *testing.T) {
	r := NewRegistry()
	collector := NewCollector(func() int64 { return 7 }, func() int { return 2 })

	if err := r.Underlying().Register(collector); err != nil {
		t.Fatalf("Register(collector) error = %v", err)
	}

	body := scrape(t, r.Handler())

	if !strings.Contains(body, "ingress_connections_active_sampled 7") {
		t.Error("scrape missing ingress_connections_active_sampled 7")
	}
	if !strings.Contains(body, "ingress_worker_queue_depth 2") {
		t.Error("scrape missing ingress_worker_queue_depth 2")
	}
}

func TestResponseCodeCounters_ForStatus_AllRecognized(t *testing.T) {
	r := NewRegistry()

	recognized := []int{200, 201, 202, 204, 400, 401, 403, 404, 429, 500}
	for _, code := range recognized {
		if r.ResponseCodes.ForStatus(code) == nil {
			t.Errorf("ForStatus(%d) returned nil", code)
		}
	}
}
