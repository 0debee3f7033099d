package ingress

import (
	"net/http"
	"strings"
)

// HandlerFunc is the signature user code registers against a route.
// A handler may not retain ctx after returning.
type HandlerFunc func(ctx Context)

// dispatcher resolves a request against the frozen route table and
// invokes the matched HandlerFunc, translating router outcomes and
// handler panics into the error taxonomy's RouteNotFound,
// MethodNotAllowed, and HandlerError cases.
type dispatcher struct {
	server *serverContext
}

func newDispatcher(server *serverContext) *dispatcher {
	return &dispatcher{server: server}
}

// ServeHTTP implements http.Handler.
func (d *dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, params, status, allow := d.server.table.Match(r.Method, r.URL.Path)

	switch status {
	case http.StatusNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	case http.StatusMethodNotAllowed:
		w.Header().Set("Allow", strings.Join(allow, ", "))
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if raw, ok := h.(http.Handler); ok {
		raw.ServeHTTP(w, r)
		return
	}

	fn, ok := h.(HandlerFunc)
	if !ok {
		if d.server.log != nil {
			d.server.log.Error("route matched to a handler of the wrong type", "path", r.URL.Path)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	ctx := newRequestContext(d.server, w, r, params)
	defer func() {
		if rec := recover(); rec != nil {
			if d.server.log != nil {
				d.server.log.Error("handler panic", "panic", rec, "path", r.URL.Path, "request_id", RequestID(r.Context()))
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}()
	fn(ctx)
}
