package pool

import "sync/atomic"

// idleVisitorCount is the sentinel value meaning "no active users" (spec.md
// §4.2 "Why the sentinel-1 scheme"). Zero is reserved for "expansion holds
// exclusive access"; ordinary users increment/decrement from the idle value.
const idleVisitorCount = 1

// visitorBarrierMinSpin/MaxSpin bound the backoff a registering user applies
// while a raised barrier blocks new entry.
const (
	visitorBarrierMinSpin = 0
	visitorBarrierMaxSpin = 6
)

// defaultNonBlockingExpandRetries is how many times a non-blocking expand
// retries the drain CAS before giving up (spec.md §4.2 step 2, "~8 attempts").
const defaultNonBlockingExpandRetries = 8

// visitorBarrier coordinates ordinary pool users (Get/Put) with a single
// expansion writer (spec.md §4.2). count uses the sentinel-1 scheme: 0 means
// a writer holds exclusive access, 1 means idle, n>=2 means n-1 active
// visitors. raised blocks new registrations while an expansion is underway.
type visitorBarrier struct {
	count  atomic.Uint64
	raised atomic.Bool
}

// newVisitorBarrier returns a barrier in the idle state.
func newVisitorBarrier() *visitorBarrier {
	vb := &visitorBarrier{}
	vb.count.Store(idleVisitorCount)
	return vb
}

// visitorGuard is returned by register; its release method must be called
// exactly once, typically via defer, to deregister the visitor.
type visitorGuard struct {
	vb *visitorBarrier
}

// register waits out any raised barrier, then records entry. The returned
// guard's release decrements the visitor count; callers must defer it.
func (vb *visitorBarrier) register() visitorGuard {
	width := uint(visitorBarrierMinSpin)
	for vb.raised.Load() {
		width = backoff(width, visitorBarrierMaxSpin)
	}
	vb.count.Add(1)
	return visitorGuard{vb: vb}
}

// release deregisters the visitor recorded by register.
func (g visitorGuard) release() {
	g.vb.count.Add(^uint64(0)) // -1
}

// expand runs the expansion-side protocol (spec.md §4.2 "Expand-side
// protocol"): raise the barrier, drain active visitors to zero, run mutate
// exclusively, then restore the idle state. mutate is invoked at most once,
// only while no visitor is registered. Returns true iff mutate ran.
//
// blocking controls step 2's patience: true retries the drain CAS
// indefinitely; false gives up after nonBlockingRetries retries, i.e.
// nonBlockingRetries+1 CAS attempts in all (0 uses
// defaultNonBlockingExpandRetries).
func (vb *visitorBarrier) expand(blocking bool, nonBlockingRetries int, mutate func()) bool {
	if !vb.raised.CompareAndSwap(false, true) {
		return false
	}

	if nonBlockingRetries <= 0 {
		nonBlockingRetries = defaultNonBlockingExpandRetries
	}

	drained := false
	attempts := 0
	for {
		if vb.count.CompareAndSwap(idleVisitorCount, 0) {
			drained = true
			break
		}
		attempts++
		if !blocking && attempts > nonBlockingRetries {
			break
		}
		spinWait(2)
	}

	if drained {
		mutate()
	}

	vb.count.Store(idleVisitorCount)
	vb.raised.Store(false)

	return drained
}
