// Package workerpool implements the bounded pool of worker goroutines
// that service accepted connections.
//
// Connections from the same remote IP are affined to the same worker
// by hashing the IP with murmur3, so a client's connections serialize
// onto one worker rather than spreading load unpredictably across the
// pool. golang.org/x/sync/errgroup supervises the pool so the first
// unrecoverable worker error unwinds the group predictably.
package workerpool
