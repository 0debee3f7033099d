// Package config defines the ingress server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultPort              = 8080
	DefaultBossThreadCount   = 1
	DefaultWorkerThreadCount = 64
	DefaultWorkerNameFormat  = "worker-%d"
	DefaultMaxConnections    = int64(10000)

	DefaultSoftReqPerSec = 50.0
	DefaultHardReqPerSec = 100.0
	DefaultBurst         = 20
	DefaultIdleTimeout   = 5 * time.Minute

	DefaultCORSMaxAge = 10 * time.Minute

	DefaultDrainTimeout                = 30 * time.Second
	DefaultAsyncHealthCheckThreadCount = 4
	DefaultHealthCheckInitialDelay     = 60 * time.Second
	DefaultHealthCheckDelay            = 60 * time.Second
	DefaultReporterPollInterval        = 30 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Port:              DefaultPort,
			BossThreadCount:   DefaultBossThreadCount,
			WorkerThreadCount: DefaultWorkerThreadCount,
			WorkerNameFormat:  DefaultWorkerNameFormat,
			MaxConnections:    DefaultMaxConnections,
			DrainTimeout:      DefaultDrainTimeout,
		},
		RateLimit: RateLimitSection{
			SoftReqPerSec: DefaultSoftReqPerSec,
			HardReqPerSec: DefaultHardReqPerSec,
			Burst:         DefaultBurst,
			IdleTimeout:   DefaultIdleTimeout,
		},
		CORS: CORSSection{
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			MaxAge:         DefaultCORSMaxAge,
		},
		Admin: AdminSection{
			ServeAdminRoutes:            true,
			RunBackgroundHealthChecks:   true,
			AsyncHealthCheckThreadCount: DefaultAsyncHealthCheckThreadCount,
			HealthCheckInitialDelay:     DefaultHealthCheckInitialDelay,
			HealthCheckDelay:            DefaultHealthCheckDelay,
		},
		Reporter: ReporterSection{
			Console: ReporterConfig{Enabled: false, PollInterval: DefaultReporterPollInterval},
			Log:     ReporterConfig{Enabled: false, PollInterval: DefaultReporterPollInterval},
			Expvar:  ReporterConfig{Enabled: false, PollInterval: DefaultReporterPollInterval},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
