package ingress

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrelhq/kestrel/internal/infra/shutdown"
	"github.com/kestrelhq/kestrel/internal/infra/tlsroots"
	"github.com/kestrelhq/kestrel/internal/ingress/router"
	"github.com/kestrelhq/kestrel/internal/ingress/workerpool"
	"github.com/kestrelhq/kestrel/internal/server/config"
	"github.com/kestrelhq/kestrel/internal/telemetry/logger"
	"github.com/kestrelhq/kestrel/internal/telemetry/metric"
)

// State is one stage of the server lifecycle.
type State int32

const (
	StateBuilt State = iota
	StateBinding
	StateServing
	StateDraining
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateBinding:
		return "binding"
	case StateServing:
		return "serving"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// HealthCheck is a named, on-demand probe registered by application
// code. It backs /health and the optional background sweep; /ready
// does not consult it.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// Server orchestrates the full ingress pipeline — admission, TLS,
// protocol negotiation, routing, and response metering — through the
// Built -> Binding -> Serving -> Draining -> Stopped lifecycle.
type Server struct {
	cfg     *config.ServerConfig
	tls     *TLSContext
	log     logger.Logger
	metrics *metric.Registry

	connLimiter *ConnLimiter
	ipFilter    *IPFilter
	firewall    *Firewall
	rateLimiter *RateLimiter

	builder *router.Builder
	table   *router.Table

	pool            *workerpool.Pool
	shutdownHandler *shutdown.Handler

	healthMu     sync.Mutex
	healthChecks []HealthCheck

	state    atomic.Int32
	listener net.Listener

	drainOnce sync.Once
	stopped   chan struct{}
}

// NewServer builds a Server from cfg. A bad TLS key pair or malformed
// CIDR in the IP allow/deny lists fails fast here as a ConfigError,
// rather than surfacing later at bind time.
func NewServer(cfg *config.ServerConfig, log logger.Logger, reg *metric.Registry) (*Server, error) {
	if log == nil {
		log = logger.Default()
	}
	if reg == nil {
		reg = metric.NewRegistry()
	}

	ipFilter, err := NewIPFilter(cfg.Server.IPWhiteList, cfg.Server.IPBlackList)
	if err != nil {
		return nil, err
	}

	var tlsCtx *TLSContext
	if cfg.TLS.Cert != "" && cfg.TLS.Key != "" {
		if cfg.TLS.WatchForChanges {
			watcher, werr := tlsroots.NewWatcher(cfg.TLS.Cert, cfg.TLS.Key)
			if werr != nil {
				return nil, ConfigError("start TLS certificate watcher", werr)
			}
			watcher.StartAsync()
			tlsCtx = NewTLSContextWithWatcher(watcher)
		} else {
			tlsCtx, err = NewTLSContext(cfg.TLS.Cert, cfg.TLS.Key)
			if err != nil {
				return nil, err
			}
		}
	}

	s := &Server{
		cfg:         cfg,
		tls:         tlsCtx,
		log:         log,
		metrics:     reg,
		connLimiter: NewConnLimiter(cfg.Server.MaxConnections),
		ipFilter:    ipFilter,
		firewall:    NewFirewall(reg),
		rateLimiter: NewRateLimiter(cfg.RateLimit.SoftReqPerSec, cfg.RateLimit.HardReqPerSec, cfg.RateLimit.Burst, cfg.RateLimit.IdleTimeout, reg),
		builder:     router.NewBuilder(),
		stopped:     make(chan struct{}),
	}
	s.shutdownHandler = shutdown.NewHandler(s.drainTimeout())
	s.shutdownHandler.OnShutdown(func(ctx context.Context) error {
		return s.Shutdown(ctx)
	})
	s.state.Store(int32(StateBuilt))
	return s, nil
}

// ShutdownHandler returns the signal-driven shutdown handler backing
// this server, for the caller to Wait() on in the controlling
// goroutine (SIGINT/SIGTERM trigger Shutdown through the same path as
// the admin surface's /killkillkill).
func (s *Server) ShutdownHandler() *shutdown.Handler {
	return s.shutdownHandler
}

func (s *Server) drainTimeout() time.Duration {
	if s.cfg.Server.DrainTimeout > 0 {
		return s.cfg.Server.DrainTimeout
	}
	return config.DefaultDrainTimeout
}

// Handle registers a route against the server's builder. Calling
// Handle after ListenAndServe has published the route table has no
// effect — the snapshot taken at Binding is frozen for the server's
// lifetime.
func (s *Server) Handle(method, pattern string, handler HandlerFunc) {
	s.builder.Handle(method, pattern, handler)
}

// HandleRaw registers a route against the server's builder with a raw
// net/http.Handler rather than a HandlerFunc, bypassing the Context
// abstraction. Used by the admin surface's /metrics route, which
// delegates straight to the Prometheus registry's own handler.
func (s *Server) HandleRaw(method, pattern string, handler http.Handler) {
	s.builder.Handle(method, pattern, handler)
}

// RegisterHealthCheck adds a named check consulted by /health and by
// the background sweep when enabled.
func (s *Server) RegisterHealthCheck(check HealthCheck) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	s.healthChecks = append(s.healthChecks, check)
}

// State returns the server's current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Metrics returns the registry the server reports into.
func (s *Server) Metrics() *metric.Registry {
	return s.metrics
}

// FirewallSnapshot returns the current protocol-anomaly counters.
func (s *Server) FirewallSnapshot() Snapshot {
	return s.firewall.Snapshot()
}

// ActiveConnections returns the number of connections currently
// holding a connection-limiter slot.
func (s *Server) ActiveConnections() int64 {
	return s.connLimiter.Active()
}

// QueueDepth returns the number of accepted connections waiting for a
// free worker.
func (s *Server) QueueDepth() int {
	if s.pool == nil {
		return 0
	}
	return s.pool.QueueDepth()
}

// RunHealthChecks runs every registered check concurrently, bounded by
// Config.Admin.AsyncHealthCheckThreadCount workers, and returns each
// check's outcome keyed by name; a nil value means healthy.
func (s *Server) RunHealthChecks(ctx context.Context) map[string]error {
	s.healthMu.Lock()
	checks := make([]HealthCheck, len(s.healthChecks))
	copy(checks, s.healthChecks)
	s.healthMu.Unlock()

	n := s.cfg.Admin.AsyncHealthCheckThreadCount
	if n < 1 {
		n = config.DefaultAsyncHealthCheckThreadCount
	}
	sem := make(chan struct{}, n)

	results := make(map[string]error, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range checks {
		wg.Add(1)
		sem <- struct{}{}
		go func(c HealthCheck) {
			defer wg.Done()
			defer func() { <-sem }()
			err := c.Check(ctx)
			mu.Lock()
			results[c.Name()] = err
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

// ListenAndServe finalizes the route table, binds the listener, and
// runs the accept loop. It must be called exactly once from the
// controlling goroutine and blocks until the server reaches Stopped,
// either because ctx was cancelled or Shutdown was called (directly,
// or via the admin surface's /killkillkill).
func (s *Server) ListenAndServe(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateBuilt), int32(StateBinding)) {
		return ErrAlreadyServing
	}

	s.table = s.builder.Freeze()
	sc := &serverContext{metrics: s.metrics, table: s.table, log: s.log}

	handler := rateLimitHandler(s.rateLimiter, requestIDMiddleware(newDispatcher(sc)))
	pipeline := NewPipeline(s.cfg.CORS, handler, s.metrics)

	negotiator := NewNegotiator(pipeline, s.tls == nil)
	negotiator.SetErrorLog(s.firewall.ErrorLog(s.log))

	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.state.Store(int32(StateStopped))
		close(s.stopped)
		return BindError("failed to bind listener", err)
	}
	s.listener = listener

	s.pool = workerpool.New(ctx, s.cfg.Server.WorkerThreadCount, s.cfg.Server.WorkerNameFormat, 0)

	s.state.Store(int32(StateServing))
	s.log.Info("ingress server serving", "addr", addr, "tls", s.tls != nil)

	if s.cfg.Admin.RunBackgroundHealthChecks {
		go s.runHealthSweep(ctx)
	}

	bossThreads := s.cfg.Server.BossThreadCount
	if bossThreads < 1 {
		bossThreads = config.DefaultBossThreadCount
	}

	// acceptDone is buffered to hold one result per boss thread: once
	// the listener closes, every acceptLoop returns nil and the select
	// below only ever consumes the first, but the rest must still have
	// somewhere to land without blocking.
	acceptDone := make(chan error, bossThreads)
	for i := 0; i < bossThreads; i++ {
		go func() {
			acceptDone <- s.acceptLoop(negotiator)
		}()
	}

	select {
	case <-ctx.Done():
		s.Shutdown(context.Background())
	case err := <-acceptDone:
		if err != nil {
			s.log.Error("accept loop exited", "error", err)
		}
		s.Shutdown(context.Background())
	}

	<-s.stopped
	return nil
}

// Shutdown transitions Serving -> Draining -> Stopped: the listener
// is closed immediately, the worker pool is given drainTimeout to
// finish in-flight work, and only the first call has effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var drainErr error
	s.drainOnce.Do(func() {
		s.state.Store(int32(StateDraining))
		s.log.Info("draining")

		if s.listener != nil {
			s.listener.Close()
		}
		if s.tls != nil {
			s.tls.Close()
		}

		drainCtx, cancel := context.WithTimeout(ctx, s.drainTimeout())
		defer cancel()

		poolDone := make(chan error, 1)
		go func() {
			if s.pool != nil {
				poolDone <- s.pool.Close()
				return
			}
			poolDone <- nil
		}()

		select {
		case err := <-poolDone:
			drainErr = err
		case <-drainCtx.Done():
			// drainTimeout elapsed; in-flight connections are not
			// force-closed, but the orchestrator no longer waits on them.
			s.log.Warn("drain timeout elapsed with work still in flight")
			drainErr = drainCtx.Err()
		}

		s.state.Store(int32(StateStopped))
		close(s.stopped)
	})
	return drainErr
}

// Done returns a channel closed once the server reaches Stopped.
func (s *Server) Done() <-chan struct{} {
	return s.stopped
}

func (s *Server) acceptLoop(negotiator *Negotiator) error {
	backoff := 5 * time.Millisecond
	const maxBackoff = time.Second

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("accept error", "error", err)
			time.Sleep(backoff)
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = 5 * time.Millisecond
		s.handleAccepted(conn, negotiator)
	}
}

func (s *Server) handleAccepted(conn net.Conn, negotiator *Negotiator) {
	remoteIP := hostOf(conn.RemoteAddr())

	token, ok := s.connLimiter.TryAcquire()
	if !ok {
		s.metrics.ConnectionsRejected.Inc()
		conn.Close()
		return
	}

	if !s.ipFilter.Allowed(net.ParseIP(remoteIP)) {
		token.Release()
		s.metrics.ConnectionsFiltered.Inc()
		conn.Close()
		return
	}

	// Submit blocks once the affinity-selected worker's queue is full.
	// It must not run on the accept loop's own goroutine: a handful of
	// long-lived connections backing up one worker would otherwise
	// stall Accept() for every IP, not just the busy one. connLimiter
	// already bounds how many of these dispatch goroutines can exist
	// at once.
	go s.pool.Submit(remoteIP, func(ctx context.Context) {
		defer token.Release()
		defer conn.Close()
		s.serveConn(conn, negotiator)
	})
}

func (s *Server) serveConn(conn net.Conn, negotiator *Negotiator) {
	if s.tls != nil {
		tlsConn := tls.Server(conn, s.tls.Config())
		if err := Handshake(tlsConn); err != nil {
			s.log.Warn("tls handshake failed", "error", err, "remote", conn.RemoteAddr())
			return
		}
		if err := negotiator.ServeTLS(tlsConn); err != nil {
			s.log.Debug("connection closed", "error", err)
		}
		return
	}

	if err := negotiator.ServePlain(conn); err != nil {
		s.log.Debug("connection closed", "error", err)
	}
}

func (s *Server) runHealthSweep(ctx context.Context) {
	initial := s.cfg.Admin.HealthCheckInitialDelay
	if initial <= 0 {
		initial = config.DefaultHealthCheckInitialDelay
	}
	delay := s.cfg.Admin.HealthCheckDelay
	if delay <= 0 {
		delay = config.DefaultHealthCheckDelay
	}

	timer := time.NewTimer(initial)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			return
		case <-timer.C:
			for name, err := range s.RunHealthChecks(ctx) {
				if err != nil {
					s.log.Warn("health check failed", "check", name, "error", err)
				}
			}
			timer.Reset(delay)
		}
	}
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
