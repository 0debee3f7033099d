package ingress

import (
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/kestrelhq/kestrel/internal/telemetry/metric"
	"github.com/kestrelhq/kestrel/pkg/cmap"
)

// Decision is the outcome of a rate-limiter admission check.
type Decision int

const (
	// Allow admits the request with no penalty.
	Allow Decision = iota
	// Soft429 admits the request but the caller must answer 429.
	Soft429
	// HardClose means the caller must answer 429 and then close the
	// connection. Hard always wins over soft on the same request.
	HardClose
)

// bucketPair is one remote IP's pair of soft/hard limiters plus the
// timestamp of its last grant, used for opportunistic idle eviction.
type bucketPair struct {
	soft     *rate.Limiter
	hard     *rate.Limiter
	lastSeen atomic.Int64 // UnixNano
}

func (bp *bucketPair) touch(now time.Time) {
	bp.lastSeen.Store(now.UnixNano())
}

func (bp *bucketPair) idleSince(cutoff time.Time) bool {
	return bp.lastSeen.Load() < cutoff.UnixNano()
}

func (bp *bucketPair) isFull(now time.Time) bool {
	return bp.soft.TokensAt(now) >= float64(bp.soft.Burst()) &&
		bp.hard.TokensAt(now) >= float64(bp.hard.Burst())
}

// RateLimiter enforces per-remote-IP soft/hard token-bucket thresholds
// using golang.org/x/time/rate, stored in a 16-shard concurrent map
// keyed by the string form of the remote IP. A shared fallback bucket
// pair is used only for requests whose IP is unknown (empty); every
// other IP gets its own pair on first sight, so the map grows with the
// number of distinct IPs until idle entries are swept.
type RateLimiter struct {
	buckets *cmap.Map[string, *bucketPair]

	softRate rate.Limit
	hardRate rate.Limit
	burst    int
	// hardBurst is the hard bucket's burst size. It is derived from
	// burst scaled by hardReqPerSec/softReqPerSec rather than shared
	// with the soft bucket, so that soft has a genuine window of its
	// own before hard closes the connection (spec.md's worked
	// example: soft=2/hard=4/burst=2 admits 2, soft-throttles 2 more,
	// then closes).
	hardBurst int

	fallback *bucketPair

	idleTimeout time.Duration

	metrics *metric.Registry
}

// NewRateLimiter creates a limiter with the given soft/hard
// requests-per-second thresholds. burst is the soft bucket's burst;
// the hard bucket's burst is derived from it by deriveHardBurst.
func NewRateLimiter(softReqPerSec, hardReqPerSec float64, burst int, idleTimeout time.Duration, reg *metric.Registry) *RateLimiter {
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}
	rl := &RateLimiter{
		buckets:     cmap.New[string, *bucketPair](),
		softRate:    rate.Limit(softReqPerSec),
		hardRate:    rate.Limit(hardReqPerSec),
		burst:       burst,
		idleTimeout: idleTimeout,
		metrics:     reg,
	}
	rl.hardBurst = deriveHardBurst(burst, rl.softRate, rl.hardRate)
	rl.fallback = rl.newBucketPair()
	return rl
}

// deriveHardBurst scales burst by the ratio of hard to soft rates, so
// the hard bucket drains strictly after the soft one rather than in
// lockstep with it. Falls back to burst unscaled when either rate is
// non-positive, since the ratio is undefined there.
func deriveHardBurst(burst int, softRate, hardRate rate.Limit) int {
	if burst <= 0 || softRate <= 0 || hardRate <= 0 {
		return burst
	}
	scaled := int(math.Round(float64(burst) * float64(hardRate) / float64(softRate)))
	if scaled < burst {
		return burst
	}
	return scaled
}

func (rl *RateLimiter) newBucketPair() *bucketPair {
	bp := &bucketPair{
		soft: rate.NewLimiter(rl.softRate, rl.burst),
		hard: rate.NewLimiter(rl.hardRate, rl.hardBurst),
	}
	bp.touch(time.Now())
	return bp
}

// Admit evaluates one request against the bucket for ip, returning
// Allow, Soft429, or HardClose. Hard wins over soft per spec: a
// request that exhausts both buckets is reported as HardClose, not
// Soft429.
func (rl *RateLimiter) Admit(ip string) Decision {
	bp := rl.bucketFor(ip)

	now := time.Now()
	softOK := bp.soft.AllowN(now, 1)
	hardOK := bp.hard.AllowN(now, 1)
	bp.touch(now)

	rl.sweep(now)

	switch {
	case !hardOK:
		if rl.metrics != nil {
			rl.metrics.RateLimitHardRejected.Inc()
		}
		return HardClose
	case !softOK:
		if rl.metrics != nil {
			rl.metrics.RateLimitSoftThrottled.Inc()
		}
		return Soft429
	default:
		return Allow
	}
}

func (rl *RateLimiter) bucketFor(ip string) *bucketPair {
	if ip == "" {
		return rl.fallback
	}

	if bp, ok := rl.buckets.Get(ip); ok {
		return bp
	}

	bp, _ := rl.buckets.GetOrSet(ip, rl.newBucketPair())
	return bp
}

// sweep opportunistically evicts entries that are both idle (no grant
// since idleTimeout ago) and full (no outstanding debt on either
// bucket), matching spec.md's eviction rule. Called on every
// insertion path.
func (rl *RateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-rl.idleTimeout)
	var stale []string
	rl.buckets.Range(func(ip string, bp *bucketPair) bool {
		if bp.idleSince(cutoff) && bp.isFull(now) {
			stale = append(stale, ip)
		}
		return true
	})
	for _, ip := range stale {
		rl.buckets.Delete(ip)
	}
}

// Count returns the number of distinct IPs currently tracked, for
// tests and diagnostics.
func (rl *RateLimiter) Count() int {
	return rl.buckets.Count()
}
