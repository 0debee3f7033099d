// Package admin implements the ingress server's operational surface:
// build info, Prometheus metrics, health/readiness probes, and the
// restart/kill controls, registered only when the server's Admin
// section enables it.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kestrelhq/kestrel/internal/ingress"
)

// Response is the JSON envelope every admin endpoint answers with.
type Response struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

func newResponse(ctx ingress.Context, status, message string, data any) *Response {
	return &Response{
		Status:    status,
		Message:   message,
		RequestID: ingress.RequestID(ctx.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}

// writeResponse encodes the envelope as the body of an admin response.
func writeResponse(ctx ingress.Context, httpStatus int, status, message string, data any) {
	ctx.ResponseHeader().Set("Content-Type", "application/json")
	ctx.WriteHeader(httpStatus)
	_ = json.NewEncoder(ctx).Encode(newResponse(ctx, status, message, data))
}

func writeOK(ctx ingress.Context, data any) {
	writeResponse(ctx, http.StatusOK, "ok", "", data)
}

func writeError(ctx ingress.Context, httpStatus int, message string) {
	writeResponse(ctx, httpStatus, "error", message, nil)
}
