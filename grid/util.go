package grid

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// VisitDataSet counts how often each cell was occupied
type VisitDataSet struct {
	Visits map[Coordinate]int
	Width  int
	Height int
}

var _ plotter.GridXYZ = &VisitDataSet{}

func NewVisitDataSet(size Size) *VisitDataSet {
	return &VisitDataSet{
		Visits: make(map[Coordinate]int),
		Width:  size.Width,
		Height: size.Height,
	}
}

func (g *VisitDataSet) Add(c Coordinate) {
	g.Visits[c] += 1
}

func (g *VisitDataSet) Count(c Coordinate) int {
	return g.Visits[c]
}

func (g *VisitDataSet) Total() int {
	total := 0
	for _, v := range g.Visits {
		total += v
	}
	return total
}

func (g *VisitDataSet) Dims() (int, int) {
	return g.Width, g.Height
}

func (g *VisitDataSet) Z(c, r int) float64 {
	return float64(g.Visits[Coordinate{X: c, Y: r}])
}

func (g *VisitDataSet) X(c int) float64 {
	return float64(c)
}

func (g *VisitDataSet) Y(r int) float64 {
	return float64(r)
}

func (g *VisitDataSet) Min() float64 {
	return 0.0
}

func (g *VisitDataSet) Max() float64 {
	max := 0
	for _, count := range g.Visits {
		if count > max {
			max = count
		}
	}
	return float64(max)
}

// MergeVisitDataSets sums the visits of several datasets
func MergeVisitDataSets(dataSets ...*VisitDataSet) *VisitDataSet {
	merged := &VisitDataSet{
		Visits: make(map[Coordinate]int),
	}
	for _, d := range dataSets {
		if d.Height > merged.Height {
			merged.Height = d.Height
		}
		if d.Width > merged.Width {
			merged.Width = d.Width
		}
		for c, visits := range d.Visits {
			merged.Visits[c] += visits
		}
	}
	return merged
}

// SavePlot renders the visits as a heat map. Nothing is written when
// no cell has been visited.
func (g *VisitDataSet) SavePlot(path, title string) error {
	if g.Max() == g.Min() {
		return nil
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewHeatMap(g, palette.Heat(12, 1)))
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving heat map: %w", err)
	}
	return nil
}
