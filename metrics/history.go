package metrics

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// NoSuccess marks a history in which the goal was never reached with the key
const NoSuccess = -1

// EpisodeRecord is the outcome of one completed episode
type EpisodeRecord struct {
	Episode int     `json:"episode"`
	Reward  float64 `json:"reward"`
	Steps   int     `json:"steps"`
	Epsilon float64 `json:"epsilon"`
	Success bool    `json:"success"`
}

// History is the chronological list of episode records of a run.
// It is written by the run that owns it and may be read concurrently.
type History struct {
	lock         sync.RWMutex
	records      []EpisodeRecord
	firstSuccess int
}

func NewHistory() *History {
	return &History{
		records:      make([]EpisodeRecord, 0),
		firstSuccess: NoSuccess,
	}
}

// Append adds the record and latches the first successful episode
func (h *History) Append(r EpisodeRecord) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.records = append(h.records, r)
	if r.Success && h.firstSuccess == NoSuccess {
		h.firstSuccess = r.Episode
	}
}

func (h *History) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.records)
}

// FirstSuccess returns the episode of the first success or NoSuccess
func (h *History) FirstSuccess() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.firstSuccess
}

// Records returns a copy of all the records
func (h *History) Records() []EpisodeRecord {
	h.lock.RLock()
	defer h.lock.RUnlock()
	out := make([]EpisodeRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Last returns a copy of the most recent n records (fewer if the history is shorter)
func (h *History) Last(n int) []EpisodeRecord {
	h.lock.RLock()
	defer h.lock.RUnlock()
	if n <= 0 {
		return []EpisodeRecord{}
	}
	start := len(h.records) - n
	if start < 0 {
		start = 0
	}
	out := make([]EpisodeRecord, len(h.records)-start)
	copy(out, h.records[start:])
	return out
}

// Window computes the statistics of the last n episodes
func (h *History) Window(n int) WindowStats {
	return Compute(h.Last(n))
}

// RollingMean averages each value with up to window-1 predecessors
func RollingMean(values []float64, window int) []float64 {
	if window <= 0 {
		window = 1
	}
	out := make([]float64, len(values))
	for i := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		out[i] = stat.Mean(values[start:i+1], nil)
	}
	return out
}

// WindowStats aggregates a window of consecutive episodes
type WindowStats struct {
	Episodes    int     `json:"episodes"`
	MeanReward  float64 `json:"mean_reward"`
	StdReward   float64 `json:"std_reward"`
	MeanSteps   float64 `json:"mean_steps"`
	SuccessRate float64 `json:"success_rate"`
}

// Compute aggregates the records. The reward deviation uses the
// population formula sqrt(mean((x - mean)^2)).
func Compute(records []EpisodeRecord) WindowStats {
	if len(records) == 0 {
		return WindowStats{}
	}
	rewards := make([]float64, len(records))
	steps := make([]float64, len(records))
	successes := 0
	for i, r := range records {
		rewards[i] = r.Reward
		steps[i] = float64(r.Steps)
		if r.Success {
			successes++
		}
	}
	mean, std := stat.PopMeanStdDev(rewards, nil)
	return WindowStats{
		Episodes:    len(records),
		MeanReward:  mean,
		StdReward:   std,
		MeanSteps:   stat.Mean(steps, nil),
		SuccessRate: float64(successes) / float64(len(records)),
	}
}
