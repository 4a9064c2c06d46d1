package grid

import (
	"fmt"
	"sort"
)

// Coordinate addresses a single cell of the grid
type Coordinate struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Coordinate) Eq(other Coordinate) bool {
	return c.X == other.X && c.Y == other.Y
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Neighbours returns the cells reached by each action, indexed by action.
// The result is not bounds checked.
func (c Coordinate) Neighbours() [NumActions]Coordinate {
	var out [NumActions]Coordinate
	for _, a := range AllActions {
		out[a] = Step(c, a)
	}
	return out
}

// Size bounds the valid coordinates 0 <= x < Width, 0 <= y < Height
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (s Size) Contains(c Coordinate) bool {
	return c.X >= 0 && c.X < s.Width && c.Y >= 0 && c.Y < s.Height
}

func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) Cells() int {
	if !s.Valid() {
		return 0
	}
	return s.Width * s.Height
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Action is one of the four cardinal moves
type Action int

const (
	Up Action = iota
	Down
	Left
	Right
)

const NumActions = 4

var AllActions = []Action{Up, Down, Left, Right}

func (a Action) String() string {
	switch a {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case Left:
		return "Left"
	case Right:
		return "Right"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

func (a Action) Valid() bool {
	return a >= Up && a <= Right
}

// Step moves one cell in the direction of the action. Up increases y.
// No clamping is applied, callers validate the result.
func Step(c Coordinate, a Action) Coordinate {
	switch a {
	case Up:
		return Coordinate{X: c.X, Y: c.Y + 1}
	case Down:
		return Coordinate{X: c.X, Y: c.Y - 1}
	case Left:
		return Coordinate{X: c.X - 1, Y: c.Y}
	case Right:
		return Coordinate{X: c.X + 1, Y: c.Y}
	}
	return c
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

func ManhattanDistance(a, b Coordinate) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// ObstacleSet is the set of impassable cells
type ObstacleSet map[Coordinate]bool

func NewObstacleSet(obstacles ...Coordinate) ObstacleSet {
	s := make(ObstacleSet, len(obstacles))
	for _, o := range obstacles {
		s[o] = true
	}
	return s
}

func (s ObstacleSet) Contains(c Coordinate) bool {
	return s[c]
}

// List returns the obstacles ordered by row and then column
func (s ObstacleSet) List() []Coordinate {
	out := make([]Coordinate, 0, len(s))
	for c, ok := range s {
		if ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

// Walkable is true for in-bounds cells that are not obstacles
func Walkable(c Coordinate, size Size, obstacles ObstacleSet) bool {
	return size.Contains(c) && !obstacles.Contains(c)
}

// ValidActions lists the actions from c that land on a walkable cell
func ValidActions(c Coordinate, size Size, obstacles ObstacleSet) []Action {
	actions := make([]Action, 0, NumActions)
	for _, a := range AllActions {
		if Walkable(Step(c, a), size, obstacles) {
			actions = append(actions, a)
		}
	}
	return actions
}
