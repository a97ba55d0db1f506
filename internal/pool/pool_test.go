package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"
)

func intFactory() func() int {
	var n atomic.Int64
	return func() int { return int(n.Add(1)) }
}

func TestNewPanicsOnNilConstructor(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic, got none")
		}
	}()
	New[int](nil, DefaultConfig())
}

func TestNewPanicsOnInvalidConfig(t *testing.T) {
	t.Parallel()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic, got none")
		}
	}()
	New(intFactory(), Config{InitialBuckets: 0})
}

func TestWithSizeMinimumOneBucket(t *testing.T) {
	t.Parallel()

	p := WithSize(intFactory(), 1, DefaultConfig())
	if got := len(p.buckets.Load().buckets); got != 1 {
		t.Fatalf("buckets = %d, want 1", got)
	}
}

func TestWithSizeComputesBucketCount(t *testing.T) {
	t.Parallel()

	p := WithSize(intFactory(), 3*SlotCap, DefaultConfig())
	if got := len(p.buckets.Load().buckets); got != 3 {
		t.Fatalf("buckets = %d, want 3", got)
	}
}

func TestDrainAndRefill(t *testing.T) {
	t.Parallel()

	p := New(intFactory(), DefaultConfig())
	capacity := InitialBuckets * SlotCap

	seen := make(map[int]bool, capacity)
	for i := 0; i < capacity; i++ {
		v := p.Get()
		if seen[v] {
			t.Fatalf("duplicate value %d returned by Get", v)
		}
		seen[v] = true
	}
	if got := p.FaultCount(); got != 0 {
		t.Fatalf("fault count after draining exactly capacity = %d, want 0", got)
	}

	// The pool is now empty: the next Get must fault.
	_ = p.Get()
	if got := p.FaultCount(); got != 1 {
		t.Fatalf("fault count after one miss = %d, want 1", got)
	}

	// Put all original values back; all should land.
	i := 0
	for v := range seen {
		p.Put(v)
		i++
	}
	if i != capacity {
		t.Fatalf("put %d values, want %d", i, capacity)
	}

	// Pool is full again: the next Put must drop its value silently (no
	// panic, no observable error).
	p.Put(-1)
}

func TestGetOnEmptyPoolReturnsFreshValue(t *testing.T) {
	t.Parallel()

	p := WithSize(intFactory(), SlotCap, DefaultConfig())
	for i := 0; i < SlotCap; i++ {
		p.Get()
	}

	before := p.FaultCount()
	v := p.Get()
	if v == 0 {
		t.Fatal("Get on empty pool returned zero value unexpectedly")
	}
	if got := p.FaultCount(); got != before+1 {
		t.Fatalf("fault count = %d, want %d", got, before+1)
	}
}

func TestRoundTripLeavesPoolUnchanged(t *testing.T) {
	t.Parallel()

	p := New(intFactory(), DefaultConfig())
	before := p.FaultCount()

	v := p.Get()
	p.Put(v)

	after := p.FaultCount()
	if after != before {
		t.Fatalf("fault count changed across a round trip: %d -> %d", before, after)
	}

	// The value must be obtainable again (not lost).
	capacity := InitialBuckets * SlotCap
	seen := make(map[int]bool, capacity)
	for i := 0; i < capacity; i++ {
		seen[p.Get()] = true
	}
	if !seen[v] {
		t.Fatalf("round-tripped value %d not found among the pool's contents", v)
	}
}

func TestResetHookAppliedOnPut(t *testing.T) {
	t.Parallel()

	type marked struct{ marker int }
	p := New(func() marked { return marked{} }, DefaultConfig())
	p.SetResetHook(func(m *marked) { m.marker = 0xA5 })

	v := p.Get()
	if v.marker != 0 {
		t.Fatalf("fresh value marker = %d, want 0", v.marker)
	}
	v.marker = 0
	p.Put(v)

	capacity := InitialBuckets * SlotCap
	found := false
	for i := 0; i < capacity; i++ {
		if got := p.Get(); got.marker == 0xA5 {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("no value with the reset hook's marker was found after Put")
	}
}

func TestAllowExpansionIdempotent(t *testing.T) {
	t.Parallel()

	p := New(intFactory(), DefaultConfig())
	if p.ExpansionEnabled() {
		t.Fatal("expansion enabled by default, want disabled")
	}

	p.AllowExpansion(true)
	p.AllowExpansion(true)
	if !p.ExpansionEnabled() {
		t.Fatal("expansion not enabled after AllowExpansion(true)")
	}

	p.AllowExpansion(false)
	if p.ExpansionEnabled() {
		t.Fatal("expansion still enabled after AllowExpansion(false)")
	}
}

func TestExpandDisabledReturnsFalse(t *testing.T) {
	t.Parallel()

	p := New(intFactory(), DefaultConfig())
	before := len(p.buckets.Load().buckets)

	if p.Expand(4, true) {
		t.Fatal("Expand with expansion disabled: want false")
	}
	if got := len(p.buckets.Load().buckets); got != before {
		t.Fatalf("bucket count changed despite expansion disabled: %d -> %d", before, got)
	}
}

func TestExpandGrowsBucketsAndResetsFaultCount(t *testing.T) {
	t.Parallel()

	p := New(intFactory(), DefaultConfig())
	p.AllowExpansion(true)

	// Force a fault so we can observe the reset.
	for i := 0; i < InitialBuckets*SlotCap+1; i++ {
		p.Get()
	}
	if p.FaultCount() == 0 {
		t.Fatal("expected at least one fault before expanding")
	}

	before := len(p.buckets.Load().buckets)
	if !p.Expand(4, true) {
		t.Fatal("Expand: want true")
	}
	if got := len(p.buckets.Load().buckets); got != before+4 {
		t.Fatalf("bucket count = %d, want %d", got, before+4)
	}
	if got := p.FaultCount(); got != 0 {
		t.Fatalf("fault count after successful expand = %d, want 0", got)
	}
}

func TestExpandNoOpBeyondMaxBuckets(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MaxBuckets = InitialBuckets
	p := New(intFactory(), cfg)
	p.AllowExpansion(true)

	// buckets.len() == MaxBuckets here, which is not yet "> MaxBuckets", so
	// one expansion is still allowed...
	if !p.Expand(1, true) {
		t.Fatal("first expand at the cap boundary: want true")
	}
	// ...but now buckets.len() > MaxBuckets, so any further expansion must
	// be rejected.
	before := len(p.buckets.Load().buckets)
	if p.Expand(1, true) {
		t.Fatal("expand beyond MaxBuckets: want false")
	}
	if got := len(p.buckets.Load().buckets); got != before {
		t.Fatalf("bucket count changed despite exceeding MaxBuckets: %d -> %d", before, got)
	}
}

func TestConcurrentGetPutNoDuplication(t *testing.T) {
	t.Parallel()

	p := WithSize(intFactory(), 64*SlotCap, DefaultConfig())

	const workers = 16
	const iterations = 2000

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < iterations; i++ {
				v := p.Get()
				p.Put(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	capacity := 64 * SlotCap
	seen := make(map[int]int, capacity)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < capacity; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := p.Get()
			mu.Lock()
			seen[v]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	for v, count := range seen {
		if count > 1 {
			t.Fatalf("value %d observed %d times, want at most 1", v, count)
		}
	}
}

func TestExpandDuringTraffic(t *testing.T) {
	t.Parallel()

	p := WithSize(intFactory(), 64*SlotCap, DefaultConfig())
	p.AllowExpansion(true)

	stop := make(chan struct{})
	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for {
				select {
				case <-stop:
					return nil
				default:
					v := p.Get()
					p.Put(v)
				}
			}
		})
	}

	before := len(p.buckets.Load().buckets)
	ok := p.Expand(8, true)
	close(stop)
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ok {
		t.Fatal("blocking Expand during traffic: want true")
	}
	if got := len(p.buckets.Load().buckets); got != before+8 {
		t.Fatalf("bucket count = %d, want %d", got, before+8)
	}
}
