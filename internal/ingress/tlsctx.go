package ingress

import (
	"crypto/tls"

	"github.com/kestrelhq/kestrel/internal/infra/tlsroots"
)

// alpnProtocols is the ALPN preference order advertised during the
// handshake: h2 first, falling back to http/1.1.
var alpnProtocols = []string{"h2", "http/1.1"}

// modernCipherSuites restricts negotiation to suites considered safe
// for TLS 1.2+ (TLS 1.3 suites are fixed by the runtime and not
// configurable here).
var modernCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// TLSContext produces per-connection tls.Config values configured for
// ALPN negotiation between h2 and http/1.1. When a tlsroots.Watcher is
// attached, GetCertificate defers to it so certificate rotation never
// requires a restart.
type TLSContext struct {
	config  *tls.Config
	watcher *tlsroots.Watcher
}

// NewTLSContext builds a TLSContext from a static PEM certificate and
// key pair. Construction failures (mismatched or unparsable material)
// are a ConfigError.
func NewTLSContext(certFile, keyFile string) (*TLSContext, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, ConfigError("load TLS key pair", err)
	}

	cfg := baseConfig()
	cfg.Certificates = []tls.Certificate{cert}

	return &TLSContext{config: cfg}, nil
}

// NewTLSContextWithWatcher builds a TLSContext whose certificate is
// served from a live tlsroots.Watcher, so hot-reload on write/create
// events doesn't require rebuilding the ingress server.
func NewTLSContextWithWatcher(watcher *tlsroots.Watcher) *TLSContext {
	cfg := baseConfig()
	cfg.GetCertificate = watcher.GetCertificate
	return &TLSContext{config: cfg, watcher: watcher}
}

func baseConfig() *tls.Config {
	return &tls.Config{
		NextProtos:   alpnProtocols,
		MinVersion:   tls.VersionTLS12,
		CipherSuites: modernCipherSuites,
	}
}

// Close stops the certificate watcher, if one is attached. A no-op
// for a TLSContext built with NewTLSContext.
func (t *TLSContext) Close() {
	if t.watcher != nil {
		t.watcher.Stop()
	}
}

// Config returns the underlying *tls.Config, safe to hand to
// tls.Server / tls.NewListener / http.Server.TLSConfig.
func (t *TLSContext) Config() *tls.Config {
	return t.config
}

// Handshake performs the TLS handshake over a raw net.Conn-derived
// *tls.Conn and classifies a failure as HandshakeError.
func Handshake(conn *tls.Conn) error {
	if err := conn.Handshake(); err != nil {
		return HandshakeError("TLS handshake failed", err)
	}
	return nil
}

// NegotiatedProtocol returns the ALPN protocol chosen for conn, or
// empty string if ALPN wasn't negotiated (plain http/1.1 fallback).
func NegotiatedProtocol(conn *tls.Conn) string {
	return conn.ConnectionState().NegotiatedProtocol
}
