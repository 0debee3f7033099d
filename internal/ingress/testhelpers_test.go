package ingress

import "github.com/kestrelhq/kestrel/internal/telemetry/metric"

func newTestMetricRegistry() *metric.Registry {
	return metric.NewRegistry()
}
