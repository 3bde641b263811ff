package grid

import "fmt"

// Pos is a cell on the warehouse grid. X is the column, Y the row; Y grows downward.
type Pos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Sentinel marks "no assignment" in fixed-size buffers.
var Sentinel = Pos{X: -1, Y: -1}

func P(x, y int) Pos { return Pos{X: x, Y: y} }

func (p Pos) Up() Pos    { return Pos{X: p.X, Y: p.Y - 1} }
func (p Pos) Down() Pos  { return Pos{X: p.X, Y: p.Y + 1} }
func (p Pos) Left() Pos  { return Pos{X: p.X - 1, Y: p.Y} }
func (p Pos) Right() Pos { return Pos{X: p.X + 1, Y: p.Y} }

func (p Pos) IsSentinel() bool { return p == Sentinel }

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
