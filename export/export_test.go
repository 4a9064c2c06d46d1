package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
)

func testReport() *Report {
	h := metrics.NewHistory()
	for i := 0; i < 20; i++ {
		h.Append(metrics.EpisodeRecord{
			Episode: i,
			Reward:  float64(i) - 5,
			Steps:   100 - i,
			Epsilon: 0.1,
			Success: i >= 10,
		})
	}
	visits := grid.NewVisitDataSet(grid.Size{Width: 5, Height: 5})
	visits.Add(grid.Coordinate{X: 0, Y: 0})
	visits.Add(grid.Coordinate{X: 1, Y: 0})
	visits.Add(grid.Coordinate{X: 1, Y: 0})
	return &Report{
		RunID:     "run-1",
		Mode:      "Sparse",
		CreatedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Summary:   metrics.Summarize(metrics.Params{Mode: "Sparse", Alpha: 0.1, Gamma: 0.99}, h, 100),
		Episodes:  h.Records(),
		Visits:    visits,
	}
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	sink := NewFileSink(dir, true)
	sink.Window = 5
	r := testReport()
	if err := sink.Export(context.Background(), r); err != nil {
		t.Fatalf("export failed: %s", err)
	}

	paths := sink.Paths(r)
	if filepath.Base(paths.CSV) != "Training_Sparse_20240501_103000.csv" {
		t.Errorf("unexpected csv name %s", paths.CSV)
	}
	if filepath.Base(paths.Summary) != "Training_Sparse_20240501_103000_summary.txt" {
		t.Errorf("unexpected summary name %s", paths.Summary)
	}

	bs, err := os.ReadFile(paths.CSV)
	if err != nil {
		t.Fatalf("csv missing: %s", err)
	}
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	if len(lines) != 21 || lines[0] != "Episode,Reward,Steps,Epsilon,Success" {
		t.Errorf("unexpected csv content:\n%s", string(bs))
	}

	summary, err := os.ReadFile(paths.Summary)
	if err != nil {
		t.Fatalf("summary missing: %s", err)
	}
	if !strings.Contains(string(summary), "First success: episode 10") {
		t.Errorf("unexpected summary:\n%s", string(summary))
	}

	for _, p := range []string{paths.Curve, paths.Chart, paths.Visits} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to be written: %s", p, err)
		}
	}
}

func TestSQLiteSink(t *testing.T) {
	sink, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open failed: %s", err)
	}
	defer sink.Close()

	ctx := context.Background()
	r := testReport()
	if err := sink.Export(ctx, r); err != nil {
		t.Fatalf("export failed: %s", err)
	}
	// exporting twice replaces the run
	if err := sink.Export(ctx, r); err != nil {
		t.Fatalf("second export failed: %s", err)
	}

	runs, err := sink.Runs(ctx)
	if err != nil {
		t.Fatalf("runs query failed: %s", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-1" || runs[0].FirstSuccess != 10 || runs[0].Episodes != 20 {
		t.Fatalf("unexpected runs %+v", runs)
	}

	episodes, err := sink.Episodes(ctx, "run-1")
	if err != nil {
		t.Fatalf("episodes query failed: %s", err)
	}
	if len(episodes) != 20 {
		t.Fatalf("expected 20 episodes, got %d", len(episodes))
	}
	for i, e := range episodes {
		if e != r.Episodes[i] {
			t.Errorf("episode %d: expected %+v, got %+v", i, r.Episodes[i], e)
		}
	}
}

type failingSink struct{ err error }

func (f failingSink) Export(context.Context, *Report) error { return f.err }

func TestMultiSinkJoinsErrors(t *testing.T) {
	errA := errors.New("disk full")
	errB := errors.New("connection refused")
	dir := t.TempDir()
	m := MultiSink{failingSink{errA}, NewFileSink(dir, false), failingSink{errB}}

	err := m.Export(context.Background(), testReport())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both errors, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("working sink should still export, found %d files", len(entries))
	}

	if err := (MultiSink{NewFileSink(t.TempDir(), false)}).Export(context.Background(), testReport()); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRedisKeys(t *testing.T) {
	s := NewRedisSink("127.0.0.1:0", "")
	defer s.Close()
	if s.RunsKey() != "keygrid:runs" {
		t.Errorf("unexpected runs key %s", s.RunsKey())
	}
	if s.EpisodesKey("abc") != "keygrid:run:abc:episodes" || s.SummaryKey("abc") != "keygrid:run:abc:summary" {
		t.Errorf("unexpected run keys")
	}
}
