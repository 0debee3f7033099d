package ingress

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kestrelhq/kestrel/internal/ingress/router"
	"github.com/kestrelhq/kestrel/internal/telemetry/logger"
	"github.com/kestrelhq/kestrel/internal/telemetry/metric"
)

// Context is the per-request contract handed to user handlers. A
// handler may not retain it after returning.
type Context interface {
	// Method is the HTTP method of the request.
	Method() string
	// Path is the request path.
	Path() string
	// Header returns the request header map.
	Header() http.Header
	// Body is the request body stream.
	Body() interface{ Read([]byte) (int, error) }
	// Param returns a captured path parameter by name.
	Param(name string) (string, bool)
	// Params returns every captured path parameter.
	Params() router.Params
	// Context returns the underlying std context, cancelled when the
	// connection closes mid-request.
	Context() context.Context
	// Logger returns a request-scoped logger.
	Logger() logger.Logger

	// WriteHeader sets the response status code and headers.
	WriteHeader(status int)
	// Write writes response body bytes.
	Write(p []byte) (int, error)
	// ResponseHeader returns the response header map, mutable until
	// WriteHeader is called.
	ResponseHeader() http.Header
}

// serverContext is the process-wide, immutable-after-publication
// object shared by every request context: the metric registry and the
// frozen route table snapshot.
type serverContext struct {
	metrics *metric.Registry
	table   *router.Table
	log     logger.Logger
}

// writeJSON encodes v as the JSON response body. A fresh encoder is
// used per call since http.ResponseWriter is not safe to share one
// across requests.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestContext is the concrete Context implementation constructed
// after routing succeeds and dropped once the response is fully
// written.
type requestContext struct {
	req    *http.Request
	resp   http.ResponseWriter
	params router.Params
	server *serverContext
	ctx    context.Context
}

func newRequestContext(server *serverContext, w http.ResponseWriter, r *http.Request, params router.Params) *requestContext {
	return &requestContext{
		req:    r,
		resp:   w,
		params: params,
		server: server,
		ctx:    r.Context(),
	}
}

func (c *requestContext) Method() string                               { return c.req.Method }
func (c *requestContext) Path() string                                 { return c.req.URL.Path }
func (c *requestContext) Header() http.Header                          { return c.req.Header }
func (c *requestContext) Body() interface{ Read([]byte) (int, error) } { return c.req.Body }

func (c *requestContext) Param(name string) (string, bool) {
	v, ok := c.params[name]
	return v, ok
}

func (c *requestContext) Params() router.Params    { return c.params }
func (c *requestContext) Context() context.Context { return c.ctx }

func (c *requestContext) Logger() logger.Logger {
	base := logger.Default()
	if c.server != nil && c.server.log != nil {
		base = c.server.log
	}
	log := base.WithContext(c.ctx)
	if id := RequestID(c.ctx); id != "" {
		log = log.With("request_id", id)
	}
	return log
}

func (c *requestContext) WriteHeader(status int)      { c.resp.WriteHeader(status) }
func (c *requestContext) Write(p []byte) (int, error) { return c.resp.Write(p) }
func (c *requestContext) ResponseHeader() http.Header { return c.resp.Header() }
