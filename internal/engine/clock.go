package engine

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the timestamps stamped onto created and modified records.
//
// The engine never reads wall time directly; it always goes through the
// injected Clock so replaying an action sequence with the same clock
// reproduces identical state.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. Production default.
type SystemClock struct{}

// Now returns the current local time truncated to milliseconds, matching
// the precision the snapshot JSON round-trips.
func (SystemClock) Now() time.Time {
	return time.Now().Truncate(time.Millisecond)
}

// IDGenerator produces internal record ids for new Orders.
// Implemented by UUIDv7Generator (production) and testutil.SequenceIDs (tests).
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 record ids.
//
// UUIDv7 embeds a timestamp in the most significant bits, making ids
// sortable by creation time, which keeps order listings stable.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
