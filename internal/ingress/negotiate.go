package ingress

import (
	"bufio"
	"crypto/tls"
	"log"
	"net"
	"net/http"

	"golang.org/x/net/http2"
)

// Negotiator installs the right codec for a handshaked TLS connection
// based on the ALPN protocol the client and server agreed on.
type Negotiator struct {
	handler  http.Handler
	h2c      bool
	errorLog *log.Logger

	h2Server *http2.Server
}

// SetErrorLog installs a standard-library logger that net/http's
// HTTP/1.1 codec writes framing errors to, used to classify and count
// firewall anomalies (oversized headers, request lines too long).
func (n *Negotiator) SetErrorLog(l *log.Logger) {
	n.errorLog = l
}

// NewNegotiator builds a Negotiator that dispatches into handler.
// When h2c is true, a plaintext connection that opens with the HTTP/2
// client preface is upgraded to HTTP/2 without TLS; otherwise that is
// a ProtocolError.
func NewNegotiator(handler http.Handler, h2c bool) *Negotiator {
	return &Negotiator{
		handler:  handler,
		h2c:      h2c,
		h2Server: &http2.Server{},
	}
}

// ServeTLS inspects conn's negotiated ALPN protocol and installs the
// matching codec. It blocks until the connection is closed.
func (n *Negotiator) ServeTLS(conn *tls.Conn) error {
	switch NegotiatedProtocol(conn) {
	case "h2":
		n.h2Server.ServeConn(conn, &http2.ServeConnOpts{Handler: n.handler})
		return nil
	case "http/1.1", "":
		return n.serveHTTP1(conn)
	default:
		return ProtocolError("unsupported ALPN protocol negotiated", nil)
	}
}

// ServePlain serves a non-TLS connection. It is only ever reached
// when h2c is enabled and the client opened with the HTTP/2 preface;
// any other plaintext traffic is a ProtocolError, since the core does
// not serve unencrypted HTTP/1.1.
func (n *Negotiator) ServePlain(conn net.Conn) error {
	if !n.h2c {
		return ProtocolError("cleartext connection rejected: h2c is disabled", nil)
	}

	br := bufio.NewReader(conn)
	if !hasHTTP2Preface(br) {
		return ProtocolError("cleartext connection without HTTP/2 preface", nil)
	}

	n.h2Server.ServeConn(prefaceConn{Conn: conn, br: br}, &http2.ServeConnOpts{
		Handler:          n.handler,
		SawClientPreface: true,
	})
	return nil
}

func (n *Negotiator) serveHTTP1(conn net.Conn) error {
	listener := newSingleConnListener(conn)
	server := &http.Server{
		Handler:  n.handler,
		ErrorLog: n.errorLog,
		// Serve only returns once Accept fails, so the listener is
		// closed as soon as the one connection it handed out closes.
		ConnState: func(_ net.Conn, state http.ConnState) {
			if state == http.StateClosed {
				listener.Close()
			}
		},
	}
	return server.Serve(listener)
}

const http2ClientPreface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// hasHTTP2Preface peeks the first bytes off br to detect the HTTP/2
// client connection preface (RFC 7540 §3.5) without consuming them
// for the downstream codec.
func hasHTTP2Preface(br *bufio.Reader) bool {
	buf, err := br.Peek(len(http2ClientPreface))
	if err != nil {
		return false
	}
	return string(buf) == http2ClientPreface
}

// prefaceConn re-joins a net.Conn with the bufio.Reader that already
// buffered its first bytes while peeking for the HTTP/2 preface, so
// nothing read during detection is lost to the codec.
type prefaceConn struct {
	net.Conn
	br *bufio.Reader
}

func (c prefaceConn) Read(p []byte) (int, error) {
	return c.br.Read(p)
}

// singleConnListener adapts a single already-accepted net.Conn into a
// net.Listener so the standard net/http server loop can drive it,
// matching the per-connection worker model spec.md §5 describes.
type singleConnListener struct {
	conn   net.Conn
	served bool
	done   chan struct{}
}

func newSingleConnListener(conn net.Conn) *singleConnListener {
	return &singleConnListener{conn: conn, done: make(chan struct{})}
}

func (l *singleConnListener) Accept() (net.Conn, error) {
	if l.served {
		<-l.done
		return nil, net.ErrClosed
	}
	l.served = true
	return l.conn, nil
}

func (l *singleConnListener) Close() error {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
	return nil
}

func (l *singleConnListener) Addr() net.Addr {
	return l.conn.LocalAddr()
}
