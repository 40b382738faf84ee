// Package player reconciles the two write paths for the current playback
// position: the media player's continuous reports and user-driven seeks.
package player

// DefaultSeekTolerance is how far (in seconds) a requested seek must be from
// the player's reported position before it is pushed to the player. Seeks
// inside the tolerance are dropped so the player's continuous updates don't
// fight a just-applied seek on the next tick.
const DefaultSeekTolerance = 0.5

// Clock is the bridge between the player's reported position and external
// seek requests. It is single-threaded UI state, not a synchronization
// primitive; callers must not share it across goroutines.
type Clock struct {
	position  float64
	tolerance float64
}

// NewClock returns a clock with the default seek tolerance.
func NewClock() *Clock {
	return &Clock{tolerance: DefaultSeekTolerance}
}

// NewClockWithTolerance returns a clock with a custom tolerance. Tolerance
// values at or below zero fall back to the default.
func NewClockWithTolerance(tolerance float64) *Clock {
	if tolerance <= 0 {
		tolerance = DefaultSeekTolerance
	}
	return &Clock{tolerance: tolerance}
}

// Position returns the reconciled current position.
func (c *Clock) Position() float64 {
	return c.position
}

// ReportPosition records the position the player reports during playback.
func (c *Clock) ReportPosition(t float64) {
	c.position = t
}

// RequestSeek handles an externally driven seek (e.g. clicking a caption).
// It returns true when the seek must be pushed into the player, which
// happens only when the target differs from the reported position by more
// than the tolerance. The position is updated either way so subsequent
// requests compare against the latest target.
func (c *Clock) RequestSeek(t float64) bool {
	diff := t - c.position
	if diff < 0 {
		diff = -diff
	}
	if diff <= c.tolerance {
		return false
	}
	c.position = t
	return true
}
