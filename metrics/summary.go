package metrics

import (
	"fmt"
	"strings"
)

// Params are the learning parameters reported with a summary
type Params struct {
	Mode         string  `json:"mode"`
	Alpha        float64 `json:"alpha"`
	Gamma        float64 `json:"gamma"`
	Epsilon      float64 `json:"epsilon"`
	EpsilonDecay float64 `json:"epsilon_decay"`
	MinEpsilon   float64 `json:"min_epsilon"`
	Lambda       float64 `json:"lambda"`
	Shaping      float64 `json:"shaping"`
}

// Summary is the end of run report
type Summary struct {
	Params        Params      `json:"params"`
	TotalEpisodes int         `json:"total_episodes"`
	FirstSuccess  int         `json:"first_success"`
	WindowSize    int         `json:"window_size"`
	Final         WindowStats `json:"final"`
}

func Summarize(params Params, h *History, window int) Summary {
	return Summary{
		Params:        params,
		TotalEpisodes: h.Len(),
		FirstSuccess:  h.FirstSuccess(),
		WindowSize:    window,
		Final:         h.Window(window),
	}
}

func (s Summary) FirstSuccessString() string {
	if s.FirstSuccess == NoSuccess {
		return "none"
	}
	return fmt.Sprintf("episode %d", s.FirstSuccess)
}

// Text renders the human readable summary
func (s Summary) Text() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "=== TRAINING SUMMARY ===\n\n")
	fmt.Fprintf(b, "Mode: %s\n\n", s.Params.Mode)
	fmt.Fprintf(b, "Parameters:\n")
	fmt.Fprintf(b, "  - Learning rate (alpha): %g\n", s.Params.Alpha)
	fmt.Fprintf(b, "  - Discount factor (gamma): %g\n", s.Params.Gamma)
	fmt.Fprintf(b, "  - Epsilon: %g (decay %g, min %g)\n", s.Params.Epsilon, s.Params.EpsilonDecay, s.Params.MinEpsilon)
	fmt.Fprintf(b, "  - Lambda: %g\n", s.Params.Lambda)
	fmt.Fprintf(b, "  - Shaping multiplier: %g\n\n", s.Params.Shaping)
	fmt.Fprintf(b, "Results:\n")
	fmt.Fprintf(b, "  - Total episodes: %d\n", s.TotalEpisodes)
	fmt.Fprintf(b, "  - First success: %s\n", s.FirstSuccessString())
	if s.Final.Episodes == 0 {
		fmt.Fprintf(b, "  - No episodes completed\n")
		return b.String()
	}
	fmt.Fprintf(b, "  - Average reward (last %d): %.2f ± %.2f\n", s.Final.Episodes, s.Final.MeanReward, s.Final.StdReward)
	fmt.Fprintf(b, "  - Average steps (last %d): %.2f\n", s.Final.Episodes, s.Final.MeanSteps)
	fmt.Fprintf(b, "  - Success rate (last %d): %.1f%%\n", s.Final.Episodes, s.Final.SuccessRate*100)
	return b.String()
}

// ProgressLine formats the periodic progress report
func ProgressLine(episode, total int, stats WindowStats, epsilon float64) string {
	return fmt.Sprintf("Ep %d/%d | Reward: %.2f | Steps: %.1f | Success: %.1f%% | eps: %.3f",
		episode, total, stats.MeanReward, stats.MeanSteps, stats.SuccessRate*100, epsilon)
}
