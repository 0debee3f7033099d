package ingress

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/kestrelhq/kestrel/internal/telemetry/logger"
	"github.com/kestrelhq/kestrel/internal/telemetry/metric"
)

// Firewall holds protocol-level anomaly counters. It never blocks a
// connection itself; it only records the anomaly for operators and
// alerting, mirroring a Prometheus counter onto an atomic counter for
// cheap synchronous reads in tests.
type Firewall struct {
	oversizedHeaders   atomic.Int64
	malformedFrames    atomic.Int64
	requestLineTooLong atomic.Int64

	metrics *metric.Registry
}

// NewFirewall creates a firewall backed by the given metric registry.
// The registry may be nil, in which case counters are still tracked
// locally but nothing is exported.
func NewFirewall(reg *metric.Registry) *Firewall {
	return &Firewall{metrics: reg}
}

// OversizedHeader records an oversized-header anomaly.
func (f *Firewall) OversizedHeader() {
	f.oversizedHeaders.Add(1)
	if f.metrics != nil {
		f.metrics.FirewallOversizedHeader.Inc()
	}
}

// MalformedFrame records a malformed-protocol-frame anomaly.
func (f *Firewall) MalformedFrame() {
	f.malformedFrames.Add(1)
	if f.metrics != nil {
		f.metrics.FirewallMalformedFrame.Inc()
	}
}

// RequestLineTooLong records an oversized-request-line anomaly.
func (f *Firewall) RequestLineTooLong() {
	f.requestLineTooLong.Add(1)
	if f.metrics != nil {
		f.metrics.FirewallRequestLineTooLong.Inc()
	}
}

// Snapshot is a point-in-time read of all three counters, for tests
// and diagnostics that don't want to scrape Prometheus.
type Snapshot struct {
	OversizedHeaders   int64
	MalformedFrames    int64
	RequestLineTooLong int64
}

// Snapshot returns the current counter values.
func (f *Firewall) Snapshot() Snapshot {
	return Snapshot{
		OversizedHeaders:   f.oversizedHeaders.Load(),
		MalformedFrames:    f.malformedFrames.Load(),
		RequestLineTooLong: f.requestLineTooLong.Load(),
	}
}

// ErrorLog returns a standard-library *log.Logger suitable for
// net/http.Server.ErrorLog. net/http reports framing problems as
// plain text lines; this classifies each one as a request line too
// long, an oversized header, or (for anything else) a malformed frame,
// and also logs every line through l when l is non-nil.
func (f *Firewall) ErrorLog(l logger.Logger) *log.Logger {
	return log.New(&firewallLogWriter{firewall: f, log: l}, "", 0)
}

type firewallLogWriter struct {
	firewall *Firewall
	log      logger.Logger
}

func (w *firewallLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	switch {
	case strings.Contains(msg, "too long"):
		w.firewall.RequestLineTooLong()
	case strings.Contains(msg, "header"):
		w.firewall.OversizedHeader()
	default:
		w.firewall.MalformedFrame()
	}
	if w.log != nil {
		w.log.Warn("http protocol anomaly", "message", msg)
	}
	return len(p), nil
}
