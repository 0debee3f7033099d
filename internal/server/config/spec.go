// Package config defines the ingress server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for kestrel-server.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	RateLimit RateLimitSection `koanf:"rate_limit"`
	TLS       TLSSection       `koanf:"tls"`
	CORS      CORSSection      `koanf:"cors"`
	Admin     AdminSection     `koanf:"admin"`
	Reporter  ReporterSection  `koanf:"reporter"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures the listener and the boss/worker thread pools.
type ServerSection struct {
	// Port is the TCP port the boss goroutines accept connections on.
	Port int `koanf:"port"`

	// BossThreadCount is the number of acceptor goroutines sharing the listener.
	BossThreadCount int `koanf:"boss_thread_count"`

	// WorkerThreadCount sizes the bounded worker pool that services accepted
	// connections.
	WorkerThreadCount int `koanf:"worker_thread_count"`

	// WorkerNameFormat is a fmt-style template (expects one %d verb) used to
	// name worker goroutines for diagnostics.
	WorkerNameFormat string `koanf:"worker_name_format"`

	// MaxConnections bounds concurrently open connections. Zero means
	// unbounded.
	MaxConnections int64 `koanf:"max_connections"`

	// IPWhiteList, when non-empty, restricts admission to the listed CIDRs;
	// everything else is denied.
	IPWhiteList []string `koanf:"ip_white_list"`

	// IPBlackList denies admission to the listed CIDRs. Evaluated after the
	// white list.
	IPBlackList []string `koanf:"ip_black_list"`

	// DrainTimeout bounds how long Draining waits for in-flight
	// connections to finish. Once it elapses the server moves to Stopped
	// without waiting further; connections still open are not closed by it.
	DrainTimeout time.Duration `koanf:"drain_timeout"`
}

// RateLimitSection configures the per-IP token-bucket limiter.
type RateLimitSection struct {
	// SoftReqPerSec is the sustained rate at which requests are accepted
	// without penalty.
	SoftReqPerSec float64 `koanf:"soft_req_per_sec"`

	// HardReqPerSec is the rate above which a connection is dropped outright
	// rather than merely throttled.
	HardReqPerSec float64 `koanf:"hard_req_per_sec"`

	// Burst is the soft limiter's token-bucket burst size. The hard
	// limiter's burst is Burst scaled by HardReqPerSec/SoftReqPerSec,
	// never less than Burst.
	Burst int `koanf:"burst"`

	// IdleTimeout bounds how long a per-IP bucket pair may sit unused
	// before it is evicted from the rate-limiter map.
	IdleTimeout time.Duration `koanf:"idle_timeout"`
}

// TLSSection configures TLS termination.
type TLSSection struct {
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`

	// WatchForChanges, when set, reloads Cert/Key from disk whenever
	// either file changes instead of loading them once when the server
	// is built.
	WatchForChanges bool `koanf:"watch_for_changes"`
}

// CORSSection configures cross-origin preflight handling.
type CORSSection struct {
	AllowedOrigins   []string      `koanf:"allowed_origins"`
	AllowedMethods   []string      `koanf:"allowed_methods"`
	AllowedHeaders   []string      `koanf:"allowed_headers"`
	MaxAge           time.Duration `koanf:"max_age"`
	AllowCredentials bool          `koanf:"allow_credentials"`
}

// AdminSection configures the metrics/health admin surface.
type AdminSection struct {
	// ServeAdminRoutes gates whether /info, /metrics, /health, /ping,
	// /ready, /restart and /killkillkill are registered at all.
	ServeAdminRoutes bool `koanf:"serve_admin_routes"`

	// RunBackgroundHealthChecks enables a periodic sweep that runs the
	// registered health checks and logs each failure; /health and /ready
	// do not use its results.
	RunBackgroundHealthChecks bool `koanf:"run_background_health_checks"`

	// AsyncHealthCheckThreadCount sizes the worker pool that runs
	// registered health checks concurrently.
	AsyncHealthCheckThreadCount int `koanf:"async_health_check_thread_count"`

	// HealthCheckInitialDelay is how long the background sweep waits
	// after Serving begins before running its first pass.
	HealthCheckInitialDelay time.Duration `koanf:"health_check_initial_delay"`

	// HealthCheckDelay is the interval between subsequent sweeps.
	HealthCheckDelay time.Duration `koanf:"health_check_delay"`

	// AdminTokenHash, when non-empty, requires a bearer token matching
	// this pkg/token hash on /restart and /killkillkill, in addition to
	// whatever IP allow-list restriction operators configure on
	// server.ip_white_list. Empty disables the token gate entirely.
	AdminTokenHash string `koanf:"admin_token_hash"`
}

// ReporterSection holds toggles for periodic console, log and expvar
// metric reporters. Nothing in this module reads these settings, so no
// reporter runs whatever they hold; metrics are exposed only through
// /metrics.
type ReporterSection struct {
	Console ReporterConfig `koanf:"console"`
	Log     ReporterConfig `koanf:"log"`
	Expvar  ReporterConfig `koanf:"expvar"`
}

// ReporterConfig configures a single reporter.
type ReporterConfig struct {
	Enabled      bool          `koanf:"enabled"`
	PollInterval time.Duration `koanf:"poll_interval"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
