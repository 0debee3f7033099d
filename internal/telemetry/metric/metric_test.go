// Package metric provides Prometheus metrics for the ingress server.
package metric

import (
	"testing"
)

// mockCounter implements Counter interface for testing.
type mockCounter struct {
	value float64
}

func (m *mockCounter) Inc()          { m.value++ }
func (m *mockCounter) Add(v float64) { m.value += v }

func TestCounter_Interface(t *testing.T) {
	var c Counter = &mockCounter{}

	c.Inc()
	c.Add(5.0)

	mc := c.(*mockCounter)
	if mc.value != 6.0 {
		t.Errorf("Counter value = %v, want 6.0", mc.value)
	}
}

// mockGauge implements Gauge interface for testing.
type mockGauge struct {
	value float64
}

func (m *mockGauge) Set(v float64) { m.value = v }
func (m *mockGauge) Inc()          { m.value++ }
func (m *mockGauge) Dec()          { m.value-- }
func (m *mockGauge) Add(v float64) { m.value += v }
func (m *mockGauge) Sub(v float64) { m.value -= v }

func TestGauge_Interface(t *testing.T) {
	var g Gauge = &mockGauge{}

	g.Set(10.0)
	mg := g.(*mockGauge)
	if mg.value != 10.0 {
		t.Errorf("Gauge.Set value = %v, want 10.0", mg.value)
	}

	g.Inc()
	if mg.value != 11.0 {
		t.Errorf("Gauge.Inc value = %v, want 11.0", mg.value)
	}

	g.Dec()
	if mg.value != 10.0 {
		t.Errorf("Gauge.Dec value = %v, want 10.0", mg.value)
	}

	g.Add(5.0)
	if mg.value != 15.0 {
		t.Errorf("Gauge.Add value = %v, want 15.0", mg.value)
	}

	g.Sub(3.0)
	if mg.value != 12.0 {
		t.Errorf("Gauge.Sub value = %v, want 12.0", mg.value)
	}
}

// mockHistogram implements Histogram interface for testing.
type mockHistogram struct {
	observations []float64
}

func (m *mockHistogram) Observe(v float64) {
	m.observations = append(m.observations, v)
}

func TestHistogram_Interface(t *testing.T) {
	var h Histogram = &mockHistogram{}

	h.Observe(0.1)
	h.Observe(0.5)
	h.Observe(1.0)

	mh := h.(*mockHistogram)
	if len(mh.observations) != 3 {
		t.Errorf("Histogram observations count = %d, want 3", len(mh.observations))
	}
}

func TestResponseCodeCounters_ForStatus(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		code int
		want Counter
	}{
		{200, r.ResponseCodes.OK},
		{201, r.ResponseCodes.Created},
		{404, r.ResponseCodes.NotFound},
		{429, r.ResponseCodes.TooManyRequests},
		{500, r.ResponseCodes.ServerError},
		{418, r.ResponseCodes.Other},
	}

	for _, tt := range tests {
		got := r.ResponseCodes.ForStatus(tt.code)
		if got != tt.want {
			t.Errorf("ForStatus(%d) did not return the expected counter", tt.code)
		}
	}
}
