package engine

import (
	"podfleet/grid"
	"podfleet/taskqueue"
)

// Phase is where a robot is in its fetch-deliver-return cycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseFetching   Phase = "fetching"   // empty, heading to the pod
	PhaseDelivering Phase = "delivering" // carrying, heading to the station
	PhasePicking    Phase = "picking"    // carrying, dwelling at the station
	PhaseReturning  Phase = "returning"  // carrying, taking the pod home
	PhaseParking    Phase = "parking"    // empty, heading back to its start cell
)

// Robot is one simulated robot. Snapshot returns copies.
type Robot struct {
	Slot     int             `json:"slot"`
	Pos      grid.Pos        `json:"pos"`
	Target   grid.Pos        `json:"target"`
	Carrying bool            `json:"carrying"`
	Phase    Phase           `json:"phase"`
	Task     *taskqueue.Task `json:"task,omitempty"`
	Home     grid.Pos        `json:"home"`
	Station  grid.Pos        `json:"station"`
	Dwell    int             `json:"dwell,omitempty"`
	Blocked  int             `json:"blocked,omitempty"` // consecutive ticks without a free candidate
}

// Claim is the pod this robot holds, or grid.Sentinel.
func (r *Robot) Claim() grid.Pos {
	if r.Task == nil {
		return grid.Sentinel
	}
	return r.Task.Pod
}

// Available reports whether the robot can take a new task.
func (r *Robot) Available() bool {
	return r.Task == nil && (r.Phase == PhaseIdle || r.Phase == PhaseParking)
}

func (r *Robot) clone() Robot {
	c := *r
	if r.Task != nil {
		t := *r.Task
		c.Task = &t
	}
	return c
}
