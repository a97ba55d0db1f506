package pool

import "runtime"

// spinWait performs a short, bounded busy-wait of approximately 2^width
// iterations. Go exposes no portable CPU pause/relax intrinsic (unlike the
// PAUSE-based cpu_relax the algorithm here was ported from), so runtime.Gosched
// stands in as the yield primitive: it gives other goroutines a chance to run
// without parking the calling goroutine on the OS scheduler.
func spinWait(width uint) {
	n := 1 << width
	for i := 0; i < n; i++ {
		runtime.Gosched()
	}
}

// backoff ramps the spin width on each call, clamped to maxWidth, and
// returns the updated width. Used by both the bucket lock and the visitor
// barrier to implement exponential backoff.
func backoff(width, maxWidth uint) uint {
	spinWait(width)
	if width < maxWidth {
		width++
	}
	return width
}
