package bucketpool

import (
	"log/slog"

	"github.com/quaylabs/bucketpool/internal/pool"
)

// SetLogger replaces the package-level logger used by bucketpool. This
// allows applications to integrate bucketpool's logging (expansion
// lifecycle, saturated-Put warnings) with their own logging infrastructure.
// The provided logger should already have any desired attributes;
// bucketpool will not add additional ones beyond what it already sets.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived the next time bucketpool logs.
//
// SetLogger is safe to call concurrently with other bucketpool operations.
func SetLogger(l *slog.Logger) {
	pool.SetLogger(l)
}
