package metrics

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestFirstSuccessLatch(t *testing.T) {
	h := NewHistory()
	if h.FirstSuccess() != NoSuccess {
		t.Fatalf("expected no success on an empty history")
	}
	h.Append(EpisodeRecord{Episode: 0})
	h.Append(EpisodeRecord{Episode: 1, Success: true})
	h.Append(EpisodeRecord{Episode: 2, Success: true})
	if h.FirstSuccess() != 1 {
		t.Errorf("expected first success at 1, got %d", h.FirstSuccess())
	}
}

func TestWindowStats(t *testing.T) {
	h := NewHistory()
	rewards := []float64{100, 0, 2, 4, 4, 4, 5, 5, 7, 9}
	for i, r := range rewards {
		h.Append(EpisodeRecord{Episode: i, Reward: r, Steps: i, Success: i%2 == 0})
	}

	// last 8 rewards: 2 4 4 4 5 5 7 9, mean 5, population std 2
	stats := h.Window(8)
	if stats.Episodes != 8 {
		t.Fatalf("expected 8 episodes, got %d", stats.Episodes)
	}
	if math.Abs(stats.MeanReward-5) > 1e-9 {
		t.Errorf("expected mean 5, got %f", stats.MeanReward)
	}
	if math.Abs(stats.StdReward-2) > 1e-9 {
		t.Errorf("expected population std 2, got %f", stats.StdReward)
	}
	if math.Abs(stats.MeanSteps-5.5) > 1e-9 {
		t.Errorf("expected mean steps 5.5, got %f", stats.MeanSteps)
	}
	if math.Abs(stats.SuccessRate-0.5) > 1e-9 {
		t.Errorf("expected success rate 0.5, got %f", stats.SuccessRate)
	}

	if got := h.Window(100).Episodes; got != len(rewards) {
		t.Errorf("window larger than history should cover %d episodes, got %d", len(rewards), got)
	}
	if got := Compute(nil); got.Episodes != 0 || got.MeanReward != 0 {
		t.Errorf("expected zero stats for empty window")
	}
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	records := []EpisodeRecord{
		{Episode: 0, Reward: -1.5, Steps: 100, Epsilon: 0.1, Success: false},
		{Episode: 1, Reward: 109.9, Steps: 10, Epsilon: 0.0995, Success: true},
	}
	if err := WriteCSV(buf, records); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Episode,Reward,Steps,Epsilon,Success" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[2] != "1,109.9,10,0.0995,1" {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestSummaryText(t *testing.T) {
	h := NewHistory()
	h.Append(EpisodeRecord{Episode: 0, Reward: -1, Steps: 100})
	s := Summarize(Params{Mode: "Sparse", Alpha: 0.1, Gamma: 0.99}, h, 100)
	text := s.Text()
	if !strings.Contains(text, "First success: none") {
		t.Errorf("expected no success in summary:\n%s", text)
	}
	if !strings.Contains(text, "Mode: Sparse") {
		t.Errorf("expected mode in summary:\n%s", text)
	}

	h.Append(EpisodeRecord{Episode: 1, Reward: 100, Steps: 8, Success: true})
	s = Summarize(Params{Mode: "Sparse"}, h, 100)
	if !strings.Contains(s.Text(), "First success: episode 1") {
		t.Errorf("expected first success in summary:\n%s", s.Text())
	}
}
