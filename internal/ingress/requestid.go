package ingress

import (
	"context"
	"net/http"

	"github.com/oklog/ulid/v2"
)

type requestIDKey struct{}

// requestIDMiddleware assigns a ULID to every request, exposed to
// handlers via RequestID and echoed back on the X-Request-Id header
// so it can be correlated with server-side logs, matching the
// teacher's RequestID middleware idiom (a random value stamped onto
// the request before it reaches the router).
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ulid.Make().String()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestID returns the ULID assigned to ctx's request, or "" if none
// was assigned (ctx did not originate from a request handled by the
// ingress pipeline).
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
