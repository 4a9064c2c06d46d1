package types

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
	"gopkg.in/yaml.v3"
)

// RewardMode selects the reward policy
type RewardMode string

const (
	Sparse        RewardMode = "Sparse"
	DistanceBased RewardMode = "DistanceBased"
	Decaying      RewardMode = "Decaying"
)

var RewardModes = []RewardMode{Sparse, DistanceBased, Decaying}

// ParseRewardMode matches the mode name ignoring case
func ParseRewardMode(s string) (RewardMode, error) {
	for _, m := range RewardModes {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown reward mode %q", ErrInvalidConfig, s)
}

// Shaped is true for the modes that add a distance shaping term
func (m RewardMode) Shaped() bool {
	return m == DistanceBased || m == Decaying
}

// PenaltyConfig toggles the anti-degeneracy penalties
type PenaltyConfig struct {
	// Penalize moves that leave the position unchanged
	Backtrack        bool    `yaml:"backtrack"`
	BacktrackPenalty float64 `yaml:"backtrack_penalty"`

	// Penalize revisiting any of the last LoopWindow positions
	Loop        bool    `yaml:"loop"`
	LoopWindow  int     `yaml:"loop_window"`
	LoopPenalty float64 `yaml:"loop_penalty"`

	// Penalize moves that lengthen or cut the shortest path to the target.
	// Only applies to the shaped reward modes.
	PathAware          bool    `yaml:"path_aware"`
	PathBlockedPenalty float64 `yaml:"path_blocked_penalty"`
}

// Config holds every training parameter
type Config struct {
	// Learning rate
	Alpha float64 `yaml:"alpha"`
	// Discount factor
	Gamma float64 `yaml:"gamma"`
	// Initial exploration rate, decayed once per episode down to MinEpsilon
	Epsilon      float64 `yaml:"epsilon"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`
	MinEpsilon   float64 `yaml:"min_epsilon"`

	RewardMode RewardMode `yaml:"reward_mode"`
	// Lambda of the decaying shaping factor lambda/(lambda+episode)
	Lambda  float64 `yaml:"lambda"`
	Shaping float64 `yaml:"shaping"`

	Episodes int `yaml:"episodes"`
	MaxSteps int `yaml:"max_steps"`

	Grid  grid.Size       `yaml:"grid"`
	Start grid.Coordinate `yaml:"start"`
	Key   grid.Coordinate `yaml:"key"`
	Goal  grid.Coordinate `yaml:"goal"`

	Penalties PenaltyConfig `yaml:"penalties"`

	// Episodes between progress reports
	ReportEvery int `yaml:"report_every"`
	// Number of final episodes summarized
	SummaryWindow int `yaml:"summary_window"`

	// Seed for the random source, 0 seeds from the clock
	Seed uint64 `yaml:"seed"`
	// Pause after each rendered step
	StepDelay time.Duration `yaml:"step_delay"`
	// Append every episode trace as a JSON line to this file when set
	TracesFile string `yaml:"traces_file"`
}

// DefaultConfig returns the configuration of the 5x5 fetch key task
func DefaultConfig() Config {
	return Config{
		Alpha:        0.1,
		Gamma:        0.99,
		Epsilon:      0.1,
		EpsilonDecay: 0.995,
		MinEpsilon:   0.01,

		RewardMode: Sparse,
		Lambda:     500,
		Shaping:    0.5,

		Episodes: 1000,
		MaxSteps: 100,

		Grid:  grid.Size{Width: 5, Height: 5},
		Start: grid.Coordinate{X: 0, Y: 0},
		Key:   grid.Coordinate{X: 4, Y: 2},
		Goal:  grid.Coordinate{X: 4, Y: 4},

		Penalties: PenaltyConfig{
			Backtrack:          true,
			BacktrackPenalty:   0.05,
			Loop:               true,
			LoopWindow:         4,
			LoopPenalty:        0.03,
			PathAware:          true,
			PathBlockedPenalty: 0.08,
		},

		ReportEvery:   50,
		SummaryWindow: 100,
	}
}

// LoadConfig reads a YAML file on top of the defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	bs, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func unitInterval(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be in [0, 1], got %g", ErrInvalidConfig, name, v)
	}
	return nil
}

// Validate checks the parameters against the grid the run will use
func (c Config) Validate(size grid.Size) error {
	if !size.Valid() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrInvalidGrid, size)
	}
	for name, v := range map[string]float64{
		"alpha":       c.Alpha,
		"gamma":       c.Gamma,
		"epsilon":     c.Epsilon,
		"min_epsilon": c.MinEpsilon,
	} {
		if err := unitInterval(name, v); err != nil {
			return err
		}
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("%w: epsilon_decay must be in (0, 1], got %g", ErrInvalidConfig, c.EpsilonDecay)
	}
	if _, err := ParseRewardMode(string(c.RewardMode)); err != nil {
		return err
	}
	if c.RewardMode == Decaying && c.Lambda <= 0 {
		return fmt.Errorf("%w: lambda must be positive, got %g", ErrInvalidConfig, c.Lambda)
	}
	if c.Episodes < 0 {
		return fmt.Errorf("%w: episodes must not be negative, got %d", ErrInvalidConfig, c.Episodes)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidConfig, c.MaxSteps)
	}
	if c.Penalties.Loop && c.Penalties.LoopWindow < 0 {
		return fmt.Errorf("%w: loop_window must not be negative, got %d", ErrInvalidConfig, c.Penalties.LoopWindow)
	}
	for name, p := range map[string]grid.Coordinate{"start": c.Start, "key": c.Key, "goal": c.Goal} {
		if !size.Contains(p) {
			return fmt.Errorf("%w: %w: %s %s outside %s grid", ErrInvalidConfig, ErrOutOfBounds, name, p, size)
		}
	}
	return nil
}

// Params returns the parameters reported in the summary
func (c Config) Params() metrics.Params {
	return metrics.Params{
		Mode:         string(c.RewardMode),
		Alpha:        c.Alpha,
		Gamma:        c.Gamma,
		Epsilon:      c.Epsilon,
		EpsilonDecay: c.EpsilonDecay,
		MinEpsilon:   c.MinEpsilon,
		Lambda:       c.Lambda,
		Shaping:      c.Shaping,
	}
}
