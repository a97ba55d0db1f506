// Package pool implements the bounded, lock-free object pool described by
// spec.md: a ring of fixed-capacity buckets (bucket.go), a visitor barrier
// coordinating ordinary users with a single expansion writer (barrier.go),
// and the Pool type that routes Get/Put across buckets and drives expansion
// (this file).
package pool

import "sync/atomic"

// configExpansionAllowed is bit 0 of Pool.config (spec.md §3 "config: a
// bitset; bit 0 = expansion-allowed").
const configExpansionAllowed = uint32(1)

// bucketArray is the structure swapped atomically by expansion. Pool never
// mutates a bucketArray in place; expand builds a new one and stores it,
// so readers that loaded an older *bucketArray before the swap keep working
// against a consistent, unchanging view for the remainder of their call.
type bucketArray[T any] struct {
	buckets []*bucket[T]
}

// Pool is the core of bucketpool: a ring of buckets probed by Get/Put, with
// a rotating cursor hint, a visitor barrier gating structural growth, and an
// optional reset hook run on every value returned via Put.
//
// Pool is safe for concurrent use by multiple goroutines. It is not safe to
// copy after first use.
type Pool[T any] struct {
	newT func() T

	buckets atomic.Pointer[bucketArray[T]]
	cursor  atomic.Uint64

	barrier *visitorBarrier

	faultCount atomic.Uint64
	config     atomic.Uint32

	// resetHook is an atomic pointer to a pointer-to-function, mirroring the
	// AtomicPtr<ResetHandle<T>> the algorithm here was ported from: a
	// replaceable function-valued field with at-most-one-writer semantics.
	// The Go analogue of freeing the previous handle on Drop (spec.md §9,
	// supplemented feature 2) is simply letting the GC reclaim the old
	// *func(*T) once it is unreferenced.
	resetHook atomic.Pointer[func(*T)]

	nonBlockingExpandRetries int
	maxBuckets               int
}

// New constructs a Pool with cfg.InitialBuckets pre-filled buckets, each
// populated by calling newT once per slot. Panics if newT is nil or cfg
// fails Validate — both are programmer errors caught at construction, the
// same stance core.NewManagerWithConfig takes towards its config.
func New[T any](newT func() T, cfg Config) *Pool[T] {
	if newT == nil {
		panic("bucketpool: constructor func must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		panic("bucketpool: invalid config: " + err.Error())
	}

	p := &Pool[T]{
		newT:                     newT,
		barrier:                  newVisitorBarrier(),
		nonBlockingExpandRetries: cfg.NonBlockingExpandRetries,
		maxBuckets:               cfg.MaxBuckets,
	}

	bkts := make([]*bucket[T], cfg.InitialBuckets)
	for i := range bkts {
		bkts[i] = newBucket(newT, true)
	}
	p.buckets.Store(&bucketArray[T]{buckets: bkts})

	if cfg.ExpansionAllowed {
		p.config.Store(configExpansionAllowed)
	}

	return p
}

// WithSize constructs a Pool sized from n: max(1, n/SlotCap) buckets
// (spec.md §6 with_size). The division rounds down, so when n is not a
// multiple of SlotCap the pool holds fewer than n values (but never fewer
// than one bucket's worth).
func WithSize[T any](newT func() T, n int, cfg Config) *Pool[T] {
	buckets := n / SlotCap
	if buckets < 1 {
		buckets = 1
	}
	cfg.InitialBuckets = buckets
	if cfg.MaxBuckets < buckets {
		cfg.MaxBuckets = buckets
	}
	return New(newT, cfg)
}

// Get returns a value from the pool, probing buckets starting at the cursor
// hint. On a miss within the trial budget it returns a freshly constructed
// value and increments FaultCount (spec.md §4.3 "get()").
func (p *Pool[T]) Get() T {
	guard := p.barrier.register()
	defer guard.release()

	arr := p.buckets.Load()
	bkts := arr.buckets
	size := len(bkts)

	origin := int(p.cursor.Load() % uint64(size))
	pos := origin
	trials := size / 2

	for {
		b := bkts[pos]
		if b.tryAcquire(true) {
			v, ok := b.checkout()
			b.unlock()
			if ok {
				p.cursor.Store(uint64(pos))
				return v
			}
			// Acquired but empty checkout: an invariant violation elsewhere.
			// Fall through to the probing logic below rather than retrying
			// this bucket, matching spec.md §4.3 step 3c.
		}

		pos = int(p.cursor.Add(1) % uint64(size))
		trials--
		if trials == 0 || pos == origin {
			break
		}
	}

	p.faultCount.Add(1)
	return p.newT()
}

// Put returns v to the pool, probing buckets starting at the cursor hint and
// advancing backward (spec.md §4.3 "put()", "Cursor
// policy"). If every probed bucket is full, v is dropped.
func (p *Pool[T]) Put(v T) {
	guard := p.barrier.register()
	defer guard.release()

	arr := p.buckets.Load()
	bkts := arr.buckets
	size := len(bkts)

	origin := int(p.cursor.Load() % uint64(size))
	pos := origin
	trials := size / 2

	for {
		b := bkts[pos]
		if b.tryAcquire(false) {
			p.cursor.Store(uint64(pos))
			b.release(v, p.resetHook.Load())
			b.unlock()
			return
		}

		pos = int(decrMod(&p.cursor, uint64(size)))
		trials--
		if trials == 0 || pos == origin {
			break
		}
	}

	Logger().Warn("bucketpool: put dropped value, pool is saturated")
}

// decrMod atomically decrements c and returns the result modulo m. Relies on
// unsigned wraparound: a fetch-sub that crosses zero wraps to a very large
// uint64, whose modulo m is still the correct ring position.
func decrMod(c *atomic.Uint64, m uint64) uint64 {
	return c.Add(^uint64(0)) % m
}

// ExpansionEnabled reports whether Expand is currently permitted
// (spec.md §6 expansion_enabled). Read-only introspection; see
// SUPPLEMENTED FEATURES item 1 in SPEC_FULL.md for the PoolState/PoolManager
// split this and FaultCount belong to.
func (p *Pool[T]) ExpansionEnabled() bool {
	return p.config.Load()&configExpansionAllowed != 0
}

// FaultCount returns the number of Get calls that fell through to a freshly
// constructed value (spec.md §6 fault_count). Read-only introspection.
func (p *Pool[T]) FaultCount() uint64 {
	return p.faultCount.Load()
}

// AllowExpansion flips the expansion-allowed configuration bit to match
// flag, idempotently (spec.md §4.3 "Configuration toggling"): a no-op if the
// current state already matches. Management operation; see SUPPLEMENTED
// FEATURES item 1 in SPEC_FULL.md.
func (p *Pool[T]) AllowExpansion(flag bool) {
	for {
		curr := p.config.Load()
		enabled := curr&configExpansionAllowed != 0
		if enabled == flag {
			return
		}
		if p.config.CompareAndSwap(curr, curr^configExpansionAllowed) {
			return
		}
	}
}

// Expand appends additional fresh buckets to the pool, returning true iff
// the mutation ran (spec.md §4.3 "Expand request", §4.2 "Expand-side
// protocol"). Returns false without mutating the pool if expansion is
// disabled, the pool already exceeds MaxBuckets, another expansion is in
// progress, or (when !blocking) the visitor drain did not complete within
// the configured retry budget. Management operation; see SUPPLEMENTED
// FEATURES item 1 in SPEC_FULL.md.
func (p *Pool[T]) Expand(additional int, blocking bool) bool {
	if !p.ExpansionEnabled() {
		return false
	}
	arr := p.buckets.Load()
	if len(arr.buckets) > p.maxBuckets {
		return false
	}

	Logger().Debug("bucketpool: expansion starting", "current", len(arr.buckets), "additional", additional)

	grew := p.barrier.expand(blocking, p.nonBlockingExpandRetries, func() {
		next := make([]*bucket[T], len(arr.buckets)+additional)
		copy(next, arr.buckets)
		for i := len(arr.buckets); i < len(next); i++ {
			next[i] = newBucket(p.newT, true)
		}
		p.buckets.Store(&bucketArray[T]{buckets: next})
		p.faultCount.Store(0)
	})

	if grew {
		Logger().Debug("bucketpool: expansion complete", "buckets", len(p.buckets.Load().buckets))
	} else {
		Logger().Debug("bucketpool: expansion rejected or timed out")
	}

	return grew
}

// SetResetHook installs fn to be run on every value immediately before it is
// placed back into the pool by Put, replacing any previously installed hook.
// Pass nil to remove the hook. Safe for concurrent use with Get/Put/Expand.
// Management operation; see SUPPLEMENTED FEATURES item 1 in SPEC_FULL.md.
func (p *Pool[T]) SetResetHook(fn func(*T)) {
	if fn == nil {
		p.resetHook.Store(nil)
		return
	}
	p.resetHook.Store(&fn)
}
