// Package config defines the ingress server configuration structure.
package config

import (
	"fmt"
	"net"
)

// ConfigError reports a validation failure in a loaded ServerConfig.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Verify validates the configuration, returning a *ConfigError describing
// the first problem found.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyTLS(&cfg.TLS); err != nil {
		return err
	}
	if err := verifyRateLimit(&cfg.RateLimit); err != nil {
		return err
	}
	if err := verifyAdmin(&cfg.Admin); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return &ConfigError{Field: "server.port", Reason: "must be between 1 and 65535"}
	}
	if cfg.BossThreadCount < 1 {
		return &ConfigError{Field: "server.boss_thread_count", Reason: "must be at least 1"}
	}
	if cfg.WorkerThreadCount < 1 {
		return &ConfigError{Field: "server.worker_thread_count", Reason: "must be at least 1"}
	}
	if cfg.MaxConnections < 0 {
		return &ConfigError{Field: "server.max_connections", Reason: "must not be negative"}
	}
	if cfg.DrainTimeout < 0 {
		return &ConfigError{Field: "server.drain_timeout", Reason: "must not be negative"}
	}
	for _, cidr := range cfg.IPWhiteList {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return &ConfigError{Field: "server.ip_white_list", Reason: fmt.Sprintf("invalid CIDR %q: %v", cidr, err)}
		}
	}
	for _, cidr := range cfg.IPBlackList {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return &ConfigError{Field: "server.ip_black_list", Reason: fmt.Sprintf("invalid CIDR %q: %v", cidr, err)}
		}
	}
	return nil
}

func verifyTLS(cfg *TLSSection) error {
	if cfg.Cert != "" && cfg.Key == "" {
		return &ConfigError{Field: "tls.key", Reason: "cert is set but key is empty"}
	}
	if cfg.Key != "" && cfg.Cert == "" {
		return &ConfigError{Field: "tls.cert", Reason: "key is set but cert is empty"}
	}
	return nil
}

func verifyRateLimit(cfg *RateLimitSection) error {
	if cfg.SoftReqPerSec < 0 {
		return &ConfigError{Field: "rate_limit.soft_req_per_sec", Reason: "must not be negative"}
	}
	if cfg.HardReqPerSec < 0 {
		return &ConfigError{Field: "rate_limit.hard_req_per_sec", Reason: "must not be negative"}
	}
	if cfg.SoftReqPerSec > 0 && cfg.HardReqPerSec > 0 && cfg.HardReqPerSec < cfg.SoftReqPerSec {
		return &ConfigError{Field: "rate_limit.hard_req_per_sec", Reason: "must not be lower than soft_req_per_sec"}
	}
	if cfg.Burst < 0 {
		return &ConfigError{Field: "rate_limit.burst", Reason: "must not be negative"}
	}
	return nil
}

func verifyAdmin(cfg *AdminSection) error {
	if cfg.RunBackgroundHealthChecks && cfg.AsyncHealthCheckThreadCount < 1 {
		return &ConfigError{Field: "admin.async_health_check_thread_count", Reason: "must be at least 1 when background health checks are enabled"}
	}
	return nil
}
