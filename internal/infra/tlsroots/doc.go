// Package tlsroots watches a TLS certificate/key pair on disk and
// serves the current one through tls.Config's GetCertificate hook, so
// kestrel-server can rotate certificates without a restart.
//
// ingress.TLSContext wraps a Watcher when config.TLSSection.WatchForChanges
// is set; otherwise it loads the pair once, when the server is built, via
// tls.LoadX509KeyPair and never touches this package.
package tlsroots
