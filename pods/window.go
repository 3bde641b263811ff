package pods

import (
	"errors"
	"fmt"

	"podfleet/grid"
)

// ErrInvalidWindow is returned when ring indices do not fit the buffer.
var ErrInvalidWindow = errors.New("invalid queue window")

// Window is a read-only view of a ring buffer of queued pod positions.
// When Start <= End the occupied slots are [Start, End); when Start > End the
// range wraps and covers [Start, len(Buf)) and [0, End).
type Window struct {
	Buf   []grid.Pos `json:"buf"`
	Start int        `json:"start"`
	End   int        `json:"end"`
}

func (w Window) Validate() error {
	n := len(w.Buf)
	if w.Start < 0 || w.Start > n || w.End < 0 || w.End > n {
		return fmt.Errorf("%w: start=%d end=%d capacity=%d", ErrInvalidWindow, w.Start, w.End, n)
	}
	return nil
}

// Occupied reports whether slot i is inside the live range.
func (w Window) Occupied(i int) bool {
	if i < 0 || i >= len(w.Buf) {
		return false
	}
	if w.Start <= w.End {
		return i >= w.Start && i < w.End
	}
	return i < w.End || i >= w.Start
}

// Len is the number of occupied slots.
func (w Window) Len() int {
	if w.Start <= w.End {
		return w.End - w.Start
	}
	return len(w.Buf) - w.Start + w.End
}
