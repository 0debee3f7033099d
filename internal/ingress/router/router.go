package router

import (
	"net/http"
	"strings"
)

// Handler processes a matched request. The concrete request/response
// abstraction lives one layer up, in package ingress; the router only
// knows about methods, paths, and opaque handlers.
type Handler any

// Params is the mapping from captured parameter name to the matched
// path segment value.
type Params map[string]string

// segment is one element of a compiled pattern.
type segment struct {
	literal string
	param   string // non-empty when this segment captures a parameter
}

// Literal creates a literal segment matcher.
func Literal(s string) segment { return segment{literal: s} }

// Param creates a parameter-capturing segment matcher.
func Param(name string) segment { return segment{param: name} }

func (s segment) isParam() bool { return s.param != "" }

// route is one compiled pattern registered under a method.
type route struct {
	pattern  string
	segments []segment
	handler  Handler
}

// Builder accumulates routes before the server begins serving. It is
// not safe for concurrent use; application code registers every
// route from a single goroutine before calling Freeze.
type Builder struct {
	routes map[string][]*route // method -> routes in insertion order
	order  []string            // method registration order, for Allow header determinism
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{routes: make(map[string][]*route)}
}

// Handle registers pattern under method. Patterns already registered
// earlier for the same method take precedence at match time: first
// match wins in registration order.
func (b *Builder) Handle(method, pattern string, handler Handler) {
	if _, ok := b.routes[method]; !ok {
		b.order = append(b.order, method)
	}
	b.routes[method] = append(b.routes[method], &route{
		pattern:  pattern,
		segments: compile(pattern),
		handler:  handler,
	})
}

// compile splits a pattern into literal/param segments. Compilation
// is deterministic: the same pattern always compiles to the same
// segment sequence.
func compile(pattern string) []segment {
	parts := splitPath(pattern)
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") && len(p) > 2 {
			segs = append(segs, Param(p[1:len(p)-1]))
		} else {
			segs = append(segs, Literal(p))
		}
	}
	return segs
}

// splitPath splits a path on '/', ignoring the leading empty segment
// produced by a leading slash and any trailing slash.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Freeze compiles the accumulated routes into an immutable Table.
// After Freeze, further calls to Handle on this Builder have no
// effect on the returned Table.
func (b *Builder) Freeze() *Table {
	methods := make(map[string][]*route, len(b.routes))
	for method, routes := range b.routes {
		copied := make([]*route, len(routes))
		copy(copied, routes)
		methods[method] = copied
	}
	order := make([]string, len(b.order))
	copy(order, b.order)
	return &Table{methods: methods, order: order}
}

// Table is an immutable, published-once route table. Safe for
// concurrent reads by every worker without synchronization.
type Table struct {
	methods map[string][]*route
	order   []string // method registration order, for Allow header determinism
}

// Match resolves method and path against the table.
//
// No match for path under any method -> h=nil, status=404.
// Path matches under a different method -> h=nil, status=405, with
// allow listing every method that does have a matching route for path.
func (t *Table) Match(method, path string) (h Handler, params Params, status int, allow []string) {
	parts := splitPath(path)

	if routes, ok := t.methods[method]; ok {
		if h, params, ok := matchRoutes(routes, parts); ok {
			return h, params, http.StatusOK, nil
		}
	}

	var allowed []string
	for _, m := range t.order {
		if m == method {
			continue
		}
		if _, _, ok := matchRoutes(t.methods[m], parts); ok {
			allowed = append(allowed, m)
		}
	}
	if len(allowed) > 0 {
		return nil, nil, http.StatusMethodNotAllowed, allowed
	}

	return nil, nil, http.StatusNotFound, nil
}

func matchRoutes(routes []*route, parts []string) (Handler, Params, bool) {
	for _, r := range routes {
		if len(r.segments) != len(parts) {
			continue
		}
		params := Params{}
		matched := true
		for i, seg := range r.segments {
			if seg.isParam() {
				params[seg.param] = parts[i]
				continue
			}
			if seg.literal != parts[i] {
				matched = false
				break
			}
		}
		if matched {
			return r.handler, params, true
		}
	}
	return nil, nil, false
}
