package types

import (
	"fmt"
	"io"
	"os"
	"path"
	"strconv"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"k8s.io/klog/v2"
)

// seriesAnalyzer turns the episode history into a rolling series
type seriesAnalyzer struct {
	window  int
	extract func(metrics.EpisodeRecord) float64
	series  []float64
}

func (s *seriesAnalyzer) Analyze(_ int, _ string, r *RunResult) {
	records := r.History.Records()
	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = s.extract(rec)
	}
	s.series = metrics.RollingMean(values, s.window)
}

func (s *seriesAnalyzer) DataSet() DataSet {
	out := make([]float64, len(s.series))
	copy(out, s.series)
	return out
}

func (s *seriesAnalyzer) Reset() {
	s.series = nil
}

// RewardAnalyzer produces the rolling mean episode reward
func RewardAnalyzer(window int) Analyzer {
	return &seriesAnalyzer{
		window:  window,
		extract: func(r metrics.EpisodeRecord) float64 { return r.Reward },
	}
}

// SuccessAnalyzer produces the rolling success rate
func SuccessAnalyzer(window int) Analyzer {
	return &seriesAnalyzer{
		window: window,
		extract: func(r metrics.EpisodeRecord) float64 {
			if r.Success {
				return 1
			}
			return 0
		},
	}
}

// StepsAnalyzer produces the rolling mean episode length
func StepsAnalyzer(window int) Analyzer {
	return &seriesAnalyzer{
		window:  window,
		extract: func(r metrics.EpisodeRecord) float64 { return float64(r.Steps) },
	}
}

// SeriesPlotter draws one line per experiment
func SeriesPlotter(plotPath, name, yLabel string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = "Comparison"
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = yLabel
		for i := 0; i < len(names); i++ {
			series := ds[i].([]float64)
			points := make(plotter.XYs, len(series))
			for j, v := range series {
				points[j] = plotter.XY{
					X: float64(j),
					Y: v,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
		}
		file := path.Join(plotPath, strconv.Itoa(run)+"_"+name+".png")
		if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
			klog.ErrorS(err, "Failed to save plot", "path", file)
		}
	}
}

// SummaryAnalyzer keeps the summary of the run
type SummaryAnalyzer struct {
	summary *metrics.Summary
}

var _ Analyzer = &SummaryAnalyzer{}

func NewSummaryAnalyzer() *SummaryAnalyzer {
	return &SummaryAnalyzer{}
}

func (s *SummaryAnalyzer) Analyze(_ int, _ string, r *RunResult) {
	summary := r.Summary
	s.summary = &summary
}

func (s *SummaryAnalyzer) DataSet() DataSet {
	return s.summary
}

func (s *SummaryAnalyzer) Reset() {
	s.summary = nil
}

// SummaryTable prints one row per experiment
func SummaryTable(w io.Writer) Comparator {
	return func(run int, names []string, ds []DataSet) {
		fmt.Fprintf(w, "Run %d\n", run+1)
		fmt.Fprintf(w, "%-16s %12s %18s %10s %9s\n", "Experiment", "FirstSuccess", "Reward", "Steps", "Success")
		for i, name := range names {
			s, ok := ds[i].(*metrics.Summary)
			if !ok || s == nil {
				continue
			}
			fmt.Fprintf(w, "%-16s %12s %9.2f ± %6.2f %10.2f %8.1f%%\n",
				name, s.FirstSuccessString(), s.Final.MeanReward, s.Final.StdReward, s.Final.MeanSteps, s.Final.SuccessRate*100)
		}
	}
}

// VisitAnalyzer collects the cell visit counts of the run
type VisitAnalyzer struct {
	visits *grid.VisitDataSet
}

var _ Analyzer = &VisitAnalyzer{}

func NewVisitAnalyzer() *VisitAnalyzer {
	return &VisitAnalyzer{}
}

func (v *VisitAnalyzer) Analyze(_ int, _ string, r *RunResult) {
	v.visits = r.Visits
}

func (v *VisitAnalyzer) DataSet() DataSet {
	return v.visits
}

func (v *VisitAnalyzer) Reset() {
	v.visits = nil
}

// VisitHeatMaps saves one heat map per experiment
func VisitHeatMaps(plotPath string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run int, names []string, ds []DataSet) {
		for i, name := range names {
			visits, ok := ds[i].(*grid.VisitDataSet)
			if !ok || visits == nil {
				continue
			}
			file := path.Join(plotPath, strconv.Itoa(run)+"_"+name+"_visits.png")
			if err := visits.SavePlot(file, name); err != nil {
				klog.ErrorS(err, "Failed to save heat map", "path", file)
			}
		}
	}
}
