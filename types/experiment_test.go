package types

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
)

func newTestComparison(t *testing.T, table *bytes.Buffer) *Comparison {
	c := NewComparison(&ComparisonConfig{Runs: 2, RecordPath: t.TempDir()})
	c.AddAnalysis("Reward", RewardAnalyzer(1), NoopComparator())
	c.AddAnalysis("Summary", NewSummaryAnalyzer(), SummaryTable(table))
	for _, name := range []string{"first", "second"} {
		agent, _, _ := newScriptedAgent(corridorConfig(), []grid.Action{grid.Right})
		c.AddExperiment(NewExperiment(name, agent))
	}
	return c
}

func TestComparisonRun(t *testing.T) {
	table := &bytes.Buffer{}
	c := newTestComparison(t, table)
	out := &bytes.Buffer{}
	if err := c.Run(context.Background(), out); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if strings.Count(out.String(), "Exp:first, Episodes:") != 2 || !strings.Contains(out.String(), "Run 2\n") {
		t.Errorf("unexpected progress output:\n%s", out.String())
	}
	for _, name := range []string{"first", "second"} {
		results := c.Results(name)
		if len(results) != 2 {
			t.Fatalf("expected 2 results for %s, got %d", name, len(results))
		}
		if results[0].RunID == results[1].RunID {
			t.Errorf("runs of %s share an id", name)
		}
	}
	if strings.Count(table.String(), "episode 0") != 4 {
		t.Errorf("expected one summary row per experiment and run:\n%s", table.String())
	}
	if _, err := os.Stat(filepath.Join(c.cConfig.RecordPath, "comparison_config.json")); err != nil {
		t.Errorf("comparison config not recorded: %s", err)
	}
}

func TestComparisonRunParallel(t *testing.T) {
	table := &bytes.Buffer{}
	c := newTestComparison(t, table)
	out := &bytes.Buffer{}
	if err := c.RunParallel(context.Background(), out, 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, name := range []string{"first", "second"} {
		if len(c.Results(name)) != 2 {
			t.Errorf("expected 2 results for %s", name)
		}
	}
	if !strings.Contains(out.String(), "first  Done, first success episode 0") {
		t.Errorf("missing final status in %q", out.String())
	}
}

func TestParallelOutputKeepsFinalLine(t *testing.T) {
	o := NewParallelOutput()
	if o.TrySet("early") {
		t.Errorf("update accepted before start")
	}
	o.Start("pending")
	if !o.Running() || !o.TrySet("episode 1") || o.Get() != "episode 1" {
		t.Fatalf("update while running not applied: %q", o.Get())
	}
	o.Finish("done")
	if o.Running() {
		t.Errorf("output still running after finish")
	}
	if o.TrySet("episode 2") || o.Get() != "done" {
		t.Errorf("final line overwritten: %q", o.Get())
	}
}

func TestRewardAnalyzer(t *testing.T) {
	h := metrics.NewHistory()
	for i := 0; i < 4; i++ {
		h.Append(metrics.EpisodeRecord{Episode: i, Reward: float64(i)})
	}
	a := RewardAnalyzer(2)
	a.Analyze(0, "x", &RunResult{History: h})
	series := a.DataSet().([]float64)
	if len(series) != 4 || series[3] != 2.5 {
		t.Errorf("unexpected rolling mean %v", series)
	}
	a.Reset()
	if len(a.DataSet().([]float64)) != 0 {
		t.Errorf("reset did not clear the analyzer")
	}
}
