// Package ingress implements an embeddable HTTP/1.1 and HTTP/2 ingress
// server with TLS termination, per-connection and per-IP admission
// control, and a response pipeline that meters status codes.
//
// The pieces compose in accept order: connlimiter.go (global concurrency
// cap) -> ipfilter.go (allow/deny CIDR evaluation) -> tlsctx.go (ALPN
// handshake) -> negotiate.go (HTTP/1.1 vs HTTP/2 branch, with
// firewall.go counting HTTP/1.1 framing anomalies) -> pipeline.go
// (CORS preflight + status metering) -> ratelimit_handler.go (per-IP
// soft/hard limits) -> the request-ID middleware -> dispatch.go
// (router match) -> the user handler.
//
// server.go is the orchestrator tying the pieces together and driving
// the Built -> Binding -> Serving -> Draining -> Stopped lifecycle.
package ingress
