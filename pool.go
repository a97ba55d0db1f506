package bucketpool

import "github.com/quaylabs/bucketpool/internal/pool"

// SlotCap is the number of slots held by a single bucket (spec constant
// SLOT_CAP).
const SlotCap = pool.SlotCap

// InitialBuckets is the default number of buckets a new Pool starts with
// (spec constant POOL_SIZE).
const InitialBuckets = pool.InitialBuckets

// MaxBuckets is the default bucket count above which Expand is refused
// (spec constant EXPANSION_CAP). An Expand started at or below it may take
// the pool past it.
const MaxBuckets = pool.MaxBuckets

// Pool is a thread-safe, bounded object pool of values of type T. See the
// package doc comment for usage. The zero value is not usable; construct a
// Pool with New or WithSize.
type Pool[T any] struct {
	core *pool.Pool[T]
}

// New constructs a Pool with InitialBuckets pre-filled buckets, each
// populated by calling newT once per slot.
//
// Panics if newT is nil, or if any Option describes an invalid value — both
// are programmer errors caught at construction.
func New[T any](newT func() T, opts ...Option[T]) *Pool[T] {
	cfg := pool.DefaultConfig()
	var hook *func(*T)
	for _, opt := range opts {
		opt(&cfg, &hook)
	}

	core := pool.New(newT, cfg)
	if hook != nil {
		core.SetResetHook(*hook)
	}
	return &Pool[T]{core: core}
}

// WithSize constructs a Pool sized from n: max(1, n/SlotCap) buckets. The
// division rounds down, so when n is not a multiple of SlotCap the pool
// holds fewer than n values (but never fewer than one bucket's worth).
//
// Panics if newT is nil, or if any Option describes an invalid value.
func WithSize[T any](newT func() T, n int, opts ...Option[T]) *Pool[T] {
	cfg := pool.DefaultConfig()
	var hook *func(*T)
	for _, opt := range opts {
		opt(&cfg, &hook)
	}

	core := pool.WithSize(newT, n, cfg)
	if hook != nil {
		core.SetResetHook(*hook)
	}
	return &Pool[T]{core: core}
}

// Get returns a value from the pool, constructing a fresh one (and
// incrementing FaultCount) if no pooled value is available within the
// probe budget.
func (p *Pool[T]) Get() T {
	return p.core.Get()
}

// Put returns v to the pool for reuse, running the installed reset hook (if
// any) first. If the pool is saturated, v is dropped.
func (p *Pool[T]) Put(v T) {
	p.core.Put(v)
}

// ExpansionEnabled reports whether Expand is currently permitted.
func (p *Pool[T]) ExpansionEnabled() bool {
	return p.core.ExpansionEnabled()
}

// FaultCount returns the number of Get calls that fell through to a freshly
// constructed value since the last successful Expand.
func (p *Pool[T]) FaultCount() uint64 {
	return p.core.FaultCount()
}

// AllowExpansion enables or disables Expand, idempotently.
func (p *Pool[T]) AllowExpansion(flag bool) {
	p.core.AllowExpansion(flag)
}

// Expand appends additional fresh buckets to the pool. blocking controls
// whether Expand waits indefinitely for in-flight Get/Put calls to drain
// (true) or gives up after a bounded number of retries (false). Returns
// true iff the pool actually grew.
func (p *Pool[T]) Expand(additional int, blocking bool) bool {
	return p.core.Expand(additional, blocking)
}

// SetResetHook installs fn to be run on every value immediately before it
// is placed back into the pool by Put, replacing any previously installed
// hook. Pass nil to remove the hook.
func (p *Pool[T]) SetResetHook(fn func(*T)) {
	p.core.SetResetHook(fn)
}
