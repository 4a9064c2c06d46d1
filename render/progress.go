package render

import (
	"fmt"
	"io"

	"github.com/gosuri/uilive"
	"github.com/zeu5/keygrid-rl/metrics"
	"github.com/zeu5/keygrid-rl/types"
)

// Progress keeps a live two line view of the training in the terminal
type Progress struct {
	out    io.Writer
	every  int
	window int

	writer   *uilive.Writer
	detail   io.Writer
	total    int
	recent   []metrics.EpisodeRecord
	first    int
	episodes int
}

var _ types.Observer = &Progress{}
var _ types.EpisodeObserver = &Progress{}
var _ types.RunObserver = &Progress{}

// NewProgress refreshes the view every `every` episodes with statistics
// over the last `window` episodes
func NewProgress(out io.Writer, every, window int) *Progress {
	if every <= 0 {
		every = 1
	}
	if window <= 0 {
		window = 50
	}
	return &Progress{out: out, every: every, window: window}
}

func (p *Progress) OnRunStart(runID string, episodes int) {
	p.writer = uilive.New()
	p.writer.Out = p.out
	p.detail = p.writer.Newline()
	p.total = episodes
	p.recent = make([]metrics.EpisodeRecord, 0, p.window)
	p.first = metrics.NoSuccess
	p.episodes = 0
	fmt.Fprintf(p.writer, "Run %s: starting %d episodes\n", runID, episodes)
	p.writer.Flush()
}

func (p *Progress) OnEpisode(r metrics.EpisodeRecord) {
	if p.writer == nil {
		return
	}
	p.episodes++
	if len(p.recent) == p.window {
		p.recent = p.recent[1:]
	}
	p.recent = append(p.recent, r)
	if r.Success && p.first == metrics.NoSuccess {
		p.first = r.Episode
	}
	if p.episodes%p.every == 0 || p.episodes == p.total {
		p.print(r)
	}
}

func (p *Progress) print(last metrics.EpisodeRecord) {
	stats := metrics.Compute(p.recent)
	fmt.Fprintln(p.writer, metrics.ProgressLine(last.Episode, p.total, stats, last.Epsilon))
	first := "none"
	if p.first != metrics.NoSuccess {
		first = fmt.Sprintf("%d", p.first)
	}
	fmt.Fprintf(p.detail, "Last episode: reward %.2f, steps %d | First success: %s\n", last.Reward, last.Steps, first)
	p.writer.Flush()
}

func (p *Progress) OnRunEnd(*types.RunResult) {
	if p.writer == nil {
		return
	}
	p.writer.Flush()
	p.writer = nil
}

func (p *Progress) OnStep(types.StepEvent) {}

func (p *Progress) OnKeyVisible(bool) {}
