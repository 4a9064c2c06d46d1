package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/types"
)

// Terminal draws the grid after every step of the rendered episodes
type Terminal struct {
	out       io.Writer
	colors    aurora.Aurora
	size      grid.Size
	start     grid.Coordinate
	key       grid.Coordinate
	goal      grid.Coordinate
	provider  types.GridProvider
	obstacles grid.ObstacleSet

	// Delay pauses after each rendered step
	Delay time.Duration
	// Every renders one episode out of Every, 0 renders all of them
	Every int

	keyVisible bool
}

var _ types.Observer = &Terminal{}
var _ types.RunObserver = &Terminal{}

func NewTerminal(out io.Writer, cfg types.Config, provider types.GridProvider, colors bool) *Terminal {
	return &Terminal{
		out:        out,
		colors:     aurora.NewAurora(colors),
		size:       provider.Size(),
		start:      cfg.Start,
		key:        cfg.Key,
		goal:       cfg.Goal,
		provider:   provider,
		obstacles:  grid.NewObstacleSet(provider.Obstacles()...),
		Delay:      cfg.StepDelay,
		keyVisible: true,
	}
}

func (t *Terminal) OnRunStart(_ string, _ int) {
	t.size = t.provider.Size()
	t.obstacles = grid.NewObstacleSet(t.provider.Obstacles()...)
}

func (t *Terminal) OnRunEnd(*types.RunResult) {}

func (t *Terminal) rendered(episode int) bool {
	return t.Every <= 1 || episode%t.Every == 0
}

func (t *Terminal) OnKeyVisible(visible bool) {
	t.keyVisible = visible
}

func (t *Terminal) OnStep(e types.StepEvent) {
	if !t.rendered(e.Episode) {
		return
	}
	fmt.Fprintf(t.out, "Episode %d, Step %d, Action %s, Reward %.3f\n", e.Episode, e.Step, e.Action, e.Reward)
	fmt.Fprint(t.out, t.Frame(e.Position, e.HasKey))
	if t.Delay > 0 {
		time.Sleep(t.Delay)
	}
}

func (t *Terminal) cell(c, agent grid.Coordinate, hasKey bool) string {
	switch {
	case c.Eq(agent):
		if hasKey {
			return t.colors.Bold(t.colors.Yellow("A")).String()
		}
		return t.colors.Bold(t.colors.Cyan("A")).String()
	case t.obstacles.Contains(c):
		return t.colors.Red("#").String()
	case c.Eq(t.key) && t.keyVisible:
		return t.colors.Yellow("K").String()
	case c.Eq(t.goal):
		return t.colors.Green("G").String()
	case c.Eq(t.start):
		return t.colors.Blue("S").String()
	}
	return "."
}

// Frame renders the grid with the agent, the top row is the largest y
func (t *Terminal) Frame(agent grid.Coordinate, hasKey bool) string {
	b := &strings.Builder{}
	for y := t.size.Height - 1; y >= 0; y-- {
		for x := 0; x < t.size.Width; x++ {
			b.WriteString(t.cell(grid.Coordinate{X: x, Y: y}, agent, hasKey))
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

var arrows = map[grid.Action]string{
	grid.Up:    "^",
	grid.Down:  "v",
	grid.Left:  "<",
	grid.Right: ">",
}

// Policy renders the greedy action of every cell for the given key flag.
// Cells where all values are equal are shown as '?'.
func (t *Terminal) Policy(table *types.QTable, hasKey bool) string {
	b := &strings.Builder{}
	for y := t.size.Height - 1; y >= 0; y-- {
		for x := 0; x < t.size.Width; x++ {
			c := grid.Coordinate{X: x, Y: y}
			switch {
			case t.obstacles.Contains(c):
				b.WriteString(t.colors.Red("#").String())
			case c.Eq(t.goal):
				b.WriteString(t.colors.Green("G").String())
			case c.Eq(t.key) && !hasKey:
				b.WriteString(t.colors.Yellow("K").String())
			default:
				a, ok := table.Greedy(types.NewStateKey(c, hasKey))
				if !ok {
					b.WriteString("?")
				} else {
					b.WriteString(t.colors.Blue(arrows[a]).String())
				}
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}
