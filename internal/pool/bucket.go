package pool

import "sync/atomic"

// SlotCap is the number of slots held by a single bucket. Kept as the
// package-level default per spec; tune by vendoring a build with a different
// constant if cache-line locality vs. contention tradeoffs call for it (see
// spec.md's "Fixed-size slot arrays" design note).
const SlotCap = 32

// bucketGet*/bucketPut* MinSpin/MaxSpin bound the exponential backoff widths
// tried by tryAcquire before giving up. Getters are less patient than putters:
// a get miss is cheap (the caller tries another bucket), but a put miss risks
// dropping the caller's value, so putters spin a little longer.
const (
	bucketGetMinSpin = 0
	bucketGetMaxSpin = 4
	bucketPutMinSpin = 0
	bucketPutMaxSpin = 6
)

// bucket is a fixed-capacity, single-lock container of up to SlotCap values
// of T. It implements spec.md §4.1: a spin-lock guarding a contiguous
// occupied-from-zero slot array.
//
// bucket must not be copied after first use (its lock is an atomic.Bool).
type bucket[T any] struct {
	lock atomic.Bool

	// storage holds up to SlotCap values of T. filled[i] is true iff
	// storage[i] holds a live value. Invariant (spec.md §3): while lock is
	// released, filled[0:length] are all true and filled[length:SlotCap] are
	// all false.
	storage [SlotCap]T
	filled  [SlotCap]bool
	length  int
}

// newBucket constructs a bucket, optionally pre-filling every slot by
// calling newT() once per slot.
func newBucket[T any](newT func() T, fill bool) *bucket[T] {
	b := &bucket[T]{}
	if fill {
		for i := 0; i < SlotCap; i++ {
			b.storage[i] = newT()
			b.filled[i] = true
		}
		b.length = SlotCap
	}
	return b
}

// tryAcquire spins briefly to flip the lock from released to acquired, then
// checks the emptiness precondition for the requested direction. forGet
// governs spin patience (see bucketGet*/bucketPut* constants above). Returns
// false if the lock could not be taken within the spin budget, or if it was
// taken but the bucket cannot satisfy the request (empty for a get, full for
// a put) — in the latter case the lock is released before returning.
func (b *bucket[T]) tryAcquire(forGet bool) bool {
	minSpin, maxSpin := bucketGetMinSpin, bucketGetMaxSpin
	if !forGet {
		minSpin, maxSpin = bucketPutMinSpin, bucketPutMaxSpin
	}

	width := uint(minSpin)
	for {
		if b.lock.CompareAndSwap(false, true) {
			break
		}
		if width >= uint(maxSpin) {
			return false
		}
		width = backoff(width, uint(maxSpin))
	}

	if forGet && b.length == 0 {
		b.unlock()
		return false
	}
	if !forGet && b.length == SlotCap {
		b.unlock()
		return false
	}
	return true
}

// checkout removes and returns the value at slot length-1. Precondition:
// caller holds the lock and length > 0. Returns the zero value and false if
// the slot is unexpectedly empty (an invariant violation elsewhere), without
// mutating length.
func (b *bucket[T]) checkout() (T, bool) {
	i := b.length - 1
	if !b.filled[i] {
		var zero T
		return zero, false
	}
	v := b.storage[i]
	var zero T
	b.storage[i] = zero
	b.filled[i] = false
	b.length = i
	return v, true
}

// release places v into slot length and increments length, optionally
// running resetHook on v first. Precondition: caller holds the lock and
// length < SlotCap. If the target slot is already occupied (an invariant
// violation elsewhere), v is dropped silently.
func (b *bucket[T]) release(v T, resetHook *func(*T)) {
	i := b.length
	if b.filled[i] {
		return
	}
	if resetHook != nil {
		(*resetHook)(&v)
	}
	b.storage[i] = v
	b.filled[i] = true
	b.length = i + 1
}

// unlock releases the lock. Must be called exactly once per successful
// tryAcquire that did not already unlock internally.
func (b *bucket[T]) unlock() {
	b.lock.Store(false)
}
