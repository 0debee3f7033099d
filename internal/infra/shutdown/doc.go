// Package shutdown provides graceful shutdown for the ingress server.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-based forced shutdown
//   - Cleanup callback registration, run in reverse registration order
//   - Shutdown coordination
//
// Usage:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	h.Wait() // blocks until SIGINT/SIGTERM, then runs hooks
package shutdown
