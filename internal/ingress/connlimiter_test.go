package ingress

import "testing"

func TestConnLimiter_TryAcquire(t *testing.T) {
	l := NewConnLimiter(2)

	tok1, ok := l.TryAcquire()
	if !ok || tok1 == nil {
		t.Fatal("first acquire should succeed")
	}
	tok2, ok := l.TryAcquire()
	if !ok || tok2 == nil {
		t.Fatal("second acquire should succeed")
	}

	if _, ok := l.TryAcquire(); ok {
		t.Fatal("third acquire should fail at cap 2")
	}

	if got := l.Active(); got != 2 {
		t.Errorf("Active() = %d, want 2", got)
	}

	tok1.Release()
	if got := l.Active(); got != 1 {
		t.Errorf("Active() after one release = %d, want 1", got)
	}

	tok3, ok := l.TryAcquire()
	if !ok || tok3 == nil {
		t.Fatal("acquire after release should succeed")
	}
}

func TestConnLimiter_ReleaseIdempotent(t *testing.T) {
	l := NewConnLimiter(1)

	tok, ok := l.TryAcquire()
	if !ok {
		t.Fatal("acquire should succeed")
	}

	tok.Release()
	tok.Release()
	tok.Release()

	if got := l.Active(); got != 0 {
		t.Errorf("Active() after repeated release = %d, want 0", got)
	}
}

func TestConnLimiter_Unbounded(t *testing.T) {
	l := NewConnLimiter(0)

	for i := 0; i < 1000; i++ {
		if _, ok := l.TryAcquire(); !ok {
			t.Fatalf("acquire %d should succeed on an unbounded limiter", i)
		}
	}

	if got := l.Active(); got != 1000 {
		t.Errorf("Active() = %d, want 1000", got)
	}
}

func TestConnLimiter_ReleaseNil(t *testing.T) {
	var tok *Token
	tok.Release() // must not panic
}
