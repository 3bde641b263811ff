package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is returned by Validate for layouts that cannot describe a warehouse.
var ErrInvalidLayout = errors.New("invalid layout")

// Lane identifies which highway column a cell belongs to.
type Lane int

const (
	NoLane Lane = iota
	LeftLane
	RightLane
)

func (l Lane) String() string {
	switch l {
	case LeftLane:
		return "left"
	case RightLane:
		return "right"
	default:
		return "none"
	}
}

// Layout holds the fixed warehouse geometry. Pod rows are the even rows
// 0..LastPodRow restricted to columns 0..PodColumns-1. The two highway lanes are
// full-height columns.
type Layout struct {
	Width      int `yaml:"width" json:"width"`
	Height     int `yaml:"height" json:"height"`
	PodColumns int `yaml:"pod_columns" json:"pod_columns"`
	LastPodRow int `yaml:"last_pod_row" json:"last_pod_row"`
	LeftLane   int `yaml:"left_lane" json:"left_lane"`
	RightLane  int `yaml:"right_lane" json:"right_lane"`
}

// DefaultLayout is the 10x10 warehouse: five pod rows of six pods, lanes at columns 8 and 9.
func DefaultLayout() Layout {
	return Layout{
		Width:      10,
		Height:     10,
		PodColumns: 6,
		LastPodRow: 8,
		LeftLane:   8,
		RightLane:  9,
	}
}

// LastRow is the bottom row of the grid.
func (l Layout) LastRow() int { return l.Height - 1 }

func (l Layout) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < l.Width && p.Y >= 0 && p.Y < l.Height
}

// IsPodRow reports whether p lies on a pod-storage cell.
func (l Layout) IsPodRow(p Pos) bool {
	if p.Y < 0 || p.Y > l.LastPodRow || p.Y%2 != 0 {
		return false
	}
	return p.X >= 0 && p.X < l.PodColumns
}

// IsPodCell reports whether p holds a pod; the pod pool is exactly these cells.
func (l Layout) IsPodCell(p Pos) bool { return l.IsPodRow(p) }

// IsBelowPodRow reports whether the cell directly above p is a pod-storage cell.
func (l Layout) IsBelowPodRow(p Pos) bool {
	return l.IsPodRow(p.Up())
}

func (l Layout) LaneOf(p Pos) Lane {
	switch p.X {
	case l.LeftLane:
		return LeftLane
	case l.RightLane:
		return RightLane
	default:
		return NoLane
	}
}

// PodPool lists every pod-storage cell, row by row from the top, left to right.
func (l Layout) PodPool() []Pos {
	pool := make([]Pos, 0, l.PodCount())
	for y := 0; y <= l.LastPodRow; y += 2 {
		for x := 0; x < l.PodColumns; x++ {
			pool = append(pool, Pos{X: x, Y: y})
		}
	}
	return pool
}

func (l Layout) PodCount() int {
	if l.LastPodRow < 0 || l.PodColumns <= 0 {
		return 0
	}
	return (l.LastPodRow/2 + 1) * l.PodColumns
}

func (l Layout) Validate() error {
	switch {
	case l.Width <= 0 || l.Height <= 0:
		return fmt.Errorf("%w: grid size %dx%d", ErrInvalidLayout, l.Width, l.Height)
	case l.PodColumns <= 0 || l.LastPodRow < 0:
		return fmt.Errorf("%w: no pod storage", ErrInvalidLayout)
	case l.LastPodRow >= l.LastRow():
		return fmt.Errorf("%w: last pod row %d leaves no open row below storage", ErrInvalidLayout, l.LastPodRow)
	case l.LeftLane == l.RightLane:
		return fmt.Errorf("%w: lanes share column %d", ErrInvalidLayout, l.LeftLane)
	case l.LeftLane < l.PodColumns || l.RightLane < l.PodColumns:
		return fmt.Errorf("%w: lane inside pod storage", ErrInvalidLayout)
	case l.LeftLane >= l.Width || l.RightLane >= l.Width:
		return fmt.Errorf("%w: lane outside grid", ErrInvalidLayout)
	}
	return nil
}
