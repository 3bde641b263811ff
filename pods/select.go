// Package pods chooses an unclaimed pod for new work.
package pods

import (
	"errors"
	"math/rand/v2"

	"podfleet/grid"
)

// ErrNoPodsAvailable means every pod is assigned to a robot or already queued.
var ErrNoPodsAvailable = errors.New("no pods available")

// Picker returns an index in [0, n). rand.IntN satisfies it and is safe for
// concurrent use.
type Picker func(n int) int

// Available returns the pod pool minus pods held by robots and pods in the
// occupied part of the queue window. Sentinel entries in assigned are ignored.
func Available(l grid.Layout, assigned []grid.Pos, queued Window) []grid.Pos {
	claimed := make(map[grid.Pos]struct{}, len(assigned)+queued.Len())
	for _, p := range assigned {
		if !p.IsSentinel() {
			claimed[p] = struct{}{}
		}
	}
	for i, p := range queued.Buf {
		if queued.Occupied(i) {
			claimed[p] = struct{}{}
		}
	}

	pool := l.PodPool()
	free := pool[:0]
	for _, p := range pool {
		if _, ok := claimed[p]; !ok {
			free = append(free, p)
		}
	}
	return free
}

// Select draws one available pod using pick.
func Select(l grid.Layout, assigned []grid.Pos, queued Window, pick Picker) (grid.Pos, error) {
	free := Available(l, assigned, queued)
	if len(free) == 0 {
		return grid.Sentinel, ErrNoPodsAvailable
	}
	return free[pick(len(free))], nil
}

// SelectRandom draws one available pod uniformly at random.
func SelectRandom(l grid.Layout, assigned []grid.Pos, queued Window) (grid.Pos, error) {
	return Select(l, assigned, queued, rand.IntN)
}
