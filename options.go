package bucketpool

import (
	"fmt"

	"github.com/quaylabs/bucketpool/internal/pool"
)

// requirePositive panics if v <= 0 with a descriptive message. Mirrors the
// fail-fast stance of a regexp.MustCompile: option values are typically
// compile-time constants, so an invalid one is a programmer error.
func requirePositive(name string, v int) {
	if v <= 0 {
		panic(fmt.Sprintf("bucketpool: %s must be greater than 0, got %d", name, v))
	}
}

// Option configures a Pool during construction via New or WithSize.
// Each With* function returns an Option that sets a specific field.
type Option[T any] func(*pool.Config, **func(*T))

// WithInitialBuckets overrides the number of buckets a Pool is constructed
// with. Ignored by WithSize, which computes InitialBuckets from the
// requested capacity. Default: bucketpool.InitialBuckets.
//
// Panics if n < 1.
func WithInitialBuckets[T any](n int) Option[T] {
	requirePositive("initial buckets", n)
	return func(c *pool.Config, _ **func(*T)) {
		c.InitialBuckets = n
	}
}

// WithMaxBuckets overrides the bucket count above which Expand is refused; an
// Expand started at or below it may take the pool past it. Default:
// bucketpool.MaxBuckets.
//
// Panics if n < 1.
func WithMaxBuckets[T any](n int) Option[T] {
	requirePositive("max buckets", n)
	return func(c *pool.Config, _ **func(*T)) {
		c.MaxBuckets = n
	}
}

// WithNonBlockingExpandRetries overrides how many times a non-blocking
// Expand call retries its visitor-drain check before giving up.
//
// Panics if n < 1.
func WithNonBlockingExpandRetries[T any](n int) Option[T] {
	requirePositive("non-blocking expand retries", n)
	return func(c *pool.Config, _ **func(*T)) {
		c.NonBlockingExpandRetries = n
	}
}

// WithExpansionEnabled sets whether Expand is permitted from construction,
// equivalent to calling AllowExpansion(true) immediately after New. Default:
// disabled.
func WithExpansionEnabled[T any](enabled bool) Option[T] {
	return func(c *pool.Config, _ **func(*T)) {
		c.ExpansionAllowed = enabled
	}
}

// WithResetHook installs fn to run on every value immediately before it is
// placed back into the pool by Put, equivalent to calling SetResetHook(fn)
// immediately after New.
func WithResetHook[T any](fn func(*T)) Option[T] {
	return func(_ *pool.Config, hook **func(*T)) {
		*hook = &fn
	}
}
