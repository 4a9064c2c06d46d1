package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/zeu5/keygrid-rl/metrics"
	"github.com/zeu5/keygrid-rl/util"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// FileSink writes Training_<Mode>_<timestamp>.csv, the matching
// _summary.txt and optionally the learning curve and visit plots
type FileSink struct {
	Dir   string
	Plots bool
	// rolling window of the plotted curves
	Window int
}

var _ Sink = &FileSink{}

func NewFileSink(dir string, plots bool) *FileSink {
	return &FileSink{Dir: dir, Plots: plots, Window: 50}
}

// FilePaths are the files produced for one report
type FilePaths struct {
	CSV     string
	Summary string
	Curve   string
	Chart   string
	Visits  string
}

func (f *FileSink) Paths(r *Report) FilePaths {
	base := filepath.Join(f.Dir, util.TimestampedName("Training_"+r.Mode, r.CreatedAt, ""))
	return FilePaths{
		CSV:     base + ".csv",
		Summary: base + "_summary.txt",
		Curve:   base + "_curve.png",
		Chart:   base + "_curve.html",
		Visits:  base + "_visits.png",
	}
}

func (f *FileSink) Export(_ context.Context, r *Report) error {
	if err := util.EnsureDir(f.Dir); err != nil {
		return fmt.Errorf("creating %s: %w", f.Dir, err)
	}
	paths := f.Paths(r)

	buf := &bytes.Buffer{}
	if err := metrics.WriteCSV(buf, r.Episodes); err != nil {
		return fmt.Errorf("encoding csv: %w", err)
	}
	if err := os.WriteFile(paths.CSV, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	if err := util.WriteToFile(paths.Summary, r.Summary.Text()); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	if !f.Plots || len(r.Episodes) == 0 {
		return nil
	}

	rewards := make([]float64, len(r.Episodes))
	successes := make([]float64, len(r.Episodes))
	for i, e := range r.Episodes {
		rewards[i] = e.Reward
		if e.Success {
			successes[i] = 1
		}
	}
	rolling := metrics.RollingMean(rewards, f.Window)
	successRate := metrics.RollingMean(successes, f.Window)

	if err := f.saveCurve(paths.Curve, r.Mode, rolling); err != nil {
		return err
	}
	if err := f.saveChart(paths.Chart, r.Mode, rolling, successRate); err != nil {
		return err
	}
	if r.Visits != nil {
		if err := r.Visits.SavePlot(paths.Visits, r.Mode+" visits"); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileSink) saveCurve(path, mode string, rolling []float64) error {
	p := plot.New()
	p.Title.Text = mode
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Reward (rolling " + strconv.Itoa(f.Window) + ")"
	points := make(plotter.XYs, len(rolling))
	for i, v := range rolling {
		points[i] = plotter.XY{X: float64(i), Y: v}
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("building curve: %w", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving curve: %w", err)
	}
	return nil
}

func (f *FileSink) saveChart(path, mode string, rolling, successRate []float64) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Training " + mode,
			Subtitle: "rolling window of " + strconv.Itoa(f.Window) + " episodes",
		}),
	)

	episodes := make([]string, len(rolling))
	rewardItems := make([]opts.LineData, len(rolling))
	successItems := make([]opts.LineData, len(successRate))
	for i := range rolling {
		episodes[i] = strconv.Itoa(i)
		rewardItems[i] = opts.LineData{Value: rolling[i]}
		successItems[i] = opts.LineData{Value: successRate[i] * 100}
	}
	line.SetXAxis(episodes).
		AddSeries("Reward", rewardItems).
		AddSeries("Success %", successItems)

	page := components.NewPage()
	page.AddCharts(line)
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart: %w", err)
	}
	defer out.Close()
	if err := page.Render(out); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}
