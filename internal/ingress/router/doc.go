// Package router implements path-pattern matching for the ingress
// server.
//
// Patterns compile to a sequence of segment matchers (Literal or
// Param) grouped by HTTP method. Matching within a method is
// insertion order, first match wins — deliberately not a
// radix/longest-prefix tree, since reordering by specificity would
// violate that ordering guarantee.
//
// A Builder accumulates routes; Freeze returns an immutable Table
// safe for concurrent reads by every worker goroutine without
// synchronization.
package router
