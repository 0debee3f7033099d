package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kestrelhq/kestrel/internal/infra/buildinfo"
	"github.com/kestrelhq/kestrel/internal/ingress"
	"github.com/kestrelhq/kestrel/internal/server/config"
	"github.com/kestrelhq/kestrel/pkg/token"
)

// Mount registers the admin surface's routes against srv, if
// cfg.ServeAdminRoutes is set. Operators restrict who can reach
// /restart and /killkillkill with server.ip_white_list; when
// cfg.AdminTokenHash is also set, those two routes additionally
// require a matching bearer token.
func Mount(srv *ingress.Server, cfg config.AdminSection) {
	if !cfg.ServeAdminRoutes {
		return
	}

	srv.Handle(http.MethodGet, "/info", handleInfo)
	srv.Handle(http.MethodGet, "/ping", handlePing)
	srv.Handle(http.MethodGet, "/ready", handleReady(srv))
	srv.Handle(http.MethodGet, "/health", handleHealth(srv))
	srv.HandleRaw(http.MethodGet, "/metrics", srv.Metrics().Handler())

	srv.Handle(http.MethodGet, "/restart", gated(cfg.AdminTokenHash, handleRestart(srv)))
	srv.Handle(http.MethodGet, "/killkillkill", gated(cfg.AdminTokenHash, handleKillKillKill(srv)))
}

func handleInfo(ctx ingress.Context) {
	writeOK(ctx, buildinfo.Get())
}

// gated wraps next with an optional bearer-token check. An empty hash
// disables the check entirely, leaving IPWhiteList as the only gate.
func gated(tokenHash string, next ingress.HandlerFunc) ingress.HandlerFunc {
	if tokenHash == "" {
		return next
	}
	return func(ctx ingress.Context) {
		if !authorized(ctx, tokenHash) {
			writeError(ctx, http.StatusUnauthorized, "missing or invalid admin token")
			return
		}
		next(ctx)
	}
}

func authorized(ctx ingress.Context, tokenHash string) bool {
	header := ctx.Header().Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	presented := strings.TrimPrefix(header, prefix)
	return token.Verify(presented, tokenHash)
}

// handleRestart drains the server exactly like /killkillkill. The
// orchestrator's ListenAndServe has a call-once contract (see
// server.go), so there is no in-process path back to Binding; restart
// means "drain cleanly and let the process supervisor start a new
// process", not an in-place rebind.
func handleRestart(srv *ingress.Server) ingress.HandlerFunc {
	return func(ctx ingress.Context) {
		writeOK(ctx, map[string]string{"action": "restart", "note": "draining; process supervisor must restart the binary"})
		go shutdownAfterResponse(srv)
	}
}

func handleKillKillKill(srv *ingress.Server) ingress.HandlerFunc {
	return func(ctx ingress.Context) {
		writeOK(ctx, map[string]string{"action": "killkillkill"})
		go shutdownAfterResponse(srv)
	}
}

// shutdownAfterResponse runs Shutdown in its own goroutine so the
// triggering request's response reaches the client before the
// listener closes.
func shutdownAfterResponse(srv *ingress.Server) {
	time.Sleep(50 * time.Millisecond)
	_ = srv.Shutdown(context.Background())
}
