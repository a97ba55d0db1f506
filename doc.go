// Package bucketpool provides a thread-safe, bounded object pool that
// recycles reusable values of a single element type T across many
// concurrent producers and consumers.
//
// The pool avoids repeated allocation/construction cost for short-lived,
// frequently acquired objects (buffers, connections, scratch structures) by
// keeping a fixed set of pre-built instances behind a non-blocking
// acquisition protocol: buckets of slots probed in a ring, guarded by
// per-bucket spin locks, with a visitor barrier that lets a single writer
// safely grow the bucket ring while readers are active.
//
// bucketpool is not a general-purpose allocator: it does not guarantee LIFO
// or FIFO ordering of recycled objects, does not guarantee acquisition
// success under contention (a miss falls back to constructing a fresh
// value), provides no cross-process sharing, and persists no state.
//
// # Basic Usage
//
//	p := bucketpool.New(func() *bytes.Buffer { return new(bytes.Buffer) })
//
//	buf := p.Get()
//	buf.WriteString("hello")
//	// ... use buf ...
//	buf.Reset()
//	p.Put(buf)
//
// # Reset hooks
//
// Install a hook to prepare a value for reuse before it re-enters the pool,
// instead of requiring every call site to remember to reset it:
//
//	p := bucketpool.New(newConn, bucketpool.WithResetHook(func(c **Conn) {
//	    (*c).ClearDeadline()
//	}))
//
// # Growing under load
//
// A pool starts at a fixed size (bucketpool.InitialBuckets buckets of
// bucketpool.SlotCap slots each) and, unless told otherwise, never grows;
// misses simply fall back to construction. Call AllowExpansion(true) and
// Expand to grow the ring explicitly, typically from a monitoring goroutine
// watching FaultCount:
//
//	p.AllowExpansion(true)
//	if p.FaultCount() > highWaterMark {
//	    p.Expand(4, true) // block until the grow completes
//	}
package bucketpool
