package ingress

import "sync/atomic"

// ConnLimiter enforces a global cap on concurrently open connections.
// The counter is incremented on TryAcquire and decremented exactly
// once per acquired Token via Release, which is idempotent so a
// connection's cleanup path may call it more than once without
// double-releasing capacity.
type ConnLimiter struct {
	count atomic.Int64
	cap   int64
}

// NewConnLimiter creates a limiter with the given cap. A cap of 0
// means unbounded: TryAcquire always succeeds.
func NewConnLimiter(cap int64) *ConnLimiter {
	return &ConnLimiter{cap: cap}
}

// Token represents one acquired slot. Release must be called exactly
// once logically; calling it more than once is a safe no-op.
type Token struct {
	limiter  *ConnLimiter
	released atomic.Bool
}

// TryAcquire attempts to take one slot. It returns the token and true
// on success, or (nil, false) if the cap has been reached.
func (l *ConnLimiter) TryAcquire() (*Token, bool) {
	if l.cap <= 0 {
		l.count.Add(1)
		return &Token{limiter: l}, true
	}

	for {
		current := l.count.Load()
		if current >= l.cap {
			return nil, false
		}
		if l.count.CompareAndSwap(current, current+1) {
			return &Token{limiter: l}, true
		}
	}
}

// Release gives the slot back. Safe to call more than once.
func (t *Token) Release() {
	if t == nil || t.limiter == nil {
		return
	}
	if t.released.CompareAndSwap(false, true) {
		t.limiter.count.Add(-1)
	}
}

// Active returns the number of currently acquired slots.
func (l *ConnLimiter) Active() int64 {
	return l.count.Load()
}

// Cap returns the configured cap (0 means unbounded).
func (l *ConnLimiter) Cap() int64 {
	return l.cap
}
