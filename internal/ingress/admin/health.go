package admin

import (
	"net/http"

	"github.com/kestrelhq/kestrel/internal/ingress"
)

// healthReport is the per-check breakdown returned by /health.
type healthReport struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
}

func handleHealth(srv *ingress.Server) ingress.HandlerFunc {
	return func(ctx ingress.Context) {
		results := srv.RunHealthChecks(ctx.Context())

		report := healthReport{Healthy: true, Checks: make(map[string]string, len(results))}
		for name, err := range results {
			if err != nil {
				report.Healthy = false
				report.Checks[name] = err.Error()
				continue
			}
			report.Checks[name] = "ok"
		}

		status := http.StatusOK
		if !report.Healthy {
			status = http.StatusServiceUnavailable
		}
		writeResponse(ctx, status, statusFor(report.Healthy), "", report)
	}
}

func handleReady(srv *ingress.Server) ingress.HandlerFunc {
	return func(ctx ingress.Context) {
		ready := srv.State() == ingress.StateServing
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		writeResponse(ctx, status, statusFor(ready), "", map[string]string{"state": srv.State().String()})
	}
}

func handlePing(ctx ingress.Context) {
	ctx.ResponseHeader().Set("Content-Type", "text/plain; charset=utf-8")
	ctx.WriteHeader(http.StatusOK)
	_, _ = ctx.Write([]byte("PONG"))
}

func statusFor(ok bool) string {
	if ok {
		return "ok"
	}
	return "unhealthy"
}
