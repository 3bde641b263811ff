// Package nav picks the next-step candidates for a warehouse robot.
//
// The policy is a fixed priority list of rules. The first rule whose condition
// matches decides the candidate moves; later rules are not consulted. Callers try
// the candidates in order and take the first free cell.
package nav

import "podfleet/grid"

// step is the per-call view every rule sees. correctRow is computed once.
type step struct {
	layout     grid.Layout
	pos        grid.Pos
	target     grid.Pos
	carrying   bool
	lane       grid.Lane
	podRow     bool
	belowPod   bool
	correctRow bool
}

func newStep(l grid.Layout, pos, target grid.Pos, carrying bool) *step {
	s := &step{
		layout:   l,
		pos:      pos,
		target:   target,
		carrying: carrying,
		lane:     l.LaneOf(pos),
		podRow:   l.IsPodRow(pos),
		belowPod: l.IsBelowPodRow(pos),
	}
	// A loaded robot travels one row under the target pod row so it does not
	// drive into storage before it is aligned.
	if carrying && l.IsPodRow(target) {
		s.correctRow = pos.Y == target.Y+1
	} else {
		s.correctRow = pos.Y == target.Y
	}
	return s
}

type rule struct {
	name  string
	when  func(s *step) bool
	moves func(p grid.Pos) []grid.Pos
}

func inLane(lane grid.Lane, cond func(s *step) bool) func(s *step) bool {
	return func(s *step) bool {
		return s.lane == lane && (cond == nil || cond(s))
	}
}

func seq(dirs ...func(grid.Pos) grid.Pos) func(p grid.Pos) []grid.Pos {
	return func(p grid.Pos) []grid.Pos {
		out := make([]grid.Pos, len(dirs))
		for i, d := range dirs {
			out[i] = d(p)
		}
		return out
	}
}

var (
	up    = grid.Pos.Up
	down  = grid.Pos.Down
	left  = grid.Pos.Left
	right = grid.Pos.Right
	stay  = func(p grid.Pos) grid.Pos { return p }
)

var rules = []rule{
	{
		name:  "pickup-escape",
		when:  func(s *step) bool { return s.carrying && s.podRow },
		moves: seq(down),
	},
	{
		name: "drop-approach",
		when: func(s *step) bool {
			return s.carrying && s.belowPod && s.pos.X == s.target.X && s.pos.Y == s.target.Y+1
		},
		moves: seq(up, right),
	},

	// Highway lanes. Every lane cell is decided here; nothing in a lane falls through.
	{
		name:  "left-lane/same-row-target-right",
		when:  inLane(grid.LeftLane, func(s *step) bool { return s.pos.Y == s.target.Y && s.target.X > s.pos.X }),
		moves: seq(down, left),
	},
	{
		name:  "left-lane/exit",
		when:  inLane(grid.LeftLane, func(s *step) bool { return s.correctRow }),
		moves: seq(left, down),
	},
	{
		name:  "left-lane/bottom",
		when:  inLane(grid.LeftLane, func(s *step) bool { return s.pos.Y == s.layout.LastRow() }),
		moves: seq(right),
	},
	{
		name:  "left-lane/cross",
		when:  inLane(grid.LeftLane, func(s *step) bool { return s.pos.Y > s.target.Y }),
		moves: seq(right, down),
	},
	{
		name:  "left-lane/descend",
		when:  inLane(grid.LeftLane, nil),
		moves: seq(down),
	},
	{
		name:  "right-lane/top",
		when:  inLane(grid.RightLane, func(s *step) bool { return s.pos.Y == 0 }),
		moves: seq(left),
	},
	{
		name:  "right-lane/cross",
		when:  inLane(grid.RightLane, func(s *step) bool { return s.pos.Y < s.target.Y }),
		moves: seq(left, up),
	},
	{
		name:  "right-lane/ascend",
		when:  inLane(grid.RightLane, nil),
		moves: seq(up),
	},

	// Open floor.
	{
		name:  "row-align/forced-lane-entry",
		when:  func(s *step) bool { return !s.correctRow && s.carrying && s.belowPod },
		moves: seq(right),
	},
	{
		name:  "row-align",
		when:  func(s *step) bool { return !s.correctRow },
		moves: seq(right, up, down),
	},
	{
		name:  "overshoot/carrying",
		when:  func(s *step) bool { return s.pos.X > s.target.X && s.carrying },
		moves: seq(left, right),
	},
	{
		name:  "overshoot",
		when:  func(s *step) bool { return s.pos.X > s.target.X },
		moves: seq(left, up, down),
	},
	{
		name:  "undershoot",
		when:  func(s *step) bool { return s.pos.X < s.target.X },
		moves: seq(right),
	},
	{
		name:  "arrived",
		when:  func(*step) bool { return true },
		moves: seq(stay),
	},
}

// Decision is the outcome of one policy evaluation.
type Decision struct {
	Rule  string
	Moves []grid.Pos
}

// Decide evaluates the rules in priority order and reports which one fired.
func Decide(l grid.Layout, pos, target grid.Pos, carrying bool) Decision {
	s := newStep(l, pos, target, carrying)
	for _, r := range rules {
		if r.when(s) {
			return Decision{Rule: r.name, Moves: r.moves(pos)}
		}
	}
	// unreachable: "arrived" always matches
	return Decision{Rule: "arrived", Moves: []grid.Pos{pos}}
}

// Candidates returns 1 to 3 neighboring cells in preference order. A single
// entry equal to pos means the robot is already at its target.
func Candidates(l grid.Layout, pos, target grid.Pos, carrying bool) []grid.Pos {
	return Decide(l, pos, target, carrying).Moves
}

// Rules lists rule names in evaluation order.
func Rules() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}
