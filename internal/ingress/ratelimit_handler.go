package ingress

import (
	"net"
	"net/http"
)

// rateLimitHandler wraps next with per-IP soft/hard rate-limit
// admission. A Soft429 decision answers 429 and still serves the
// connection normally; a HardClose decision answers 429 and marks the
// connection for closure, matching S3's "remainder closed after 429".
func rateLimitHandler(rl *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		switch rl.Admit(ip) {
		case HardClose:
			w.Header().Set("Connection", "close")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		case Soft429:
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// clientIP extracts the remote IP from a request, preferring the
// connection's actual remote address over any forwarding headers: the
// ingress server terminates TLS itself and is not normally fronted by
// a trusted proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
