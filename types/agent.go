package types

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
	"github.com/zeu5/keygrid-rl/util"
	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"
)

// AgentConfig wires the agent to its collaborators
type AgentConfig struct {
	Config   Config
	Provider GridProvider
	Reward   RewardPolicy
	Selector ActionSelector
	// Shaper is optional
	Shaper    Shaper
	Observers []Observer
	// Rand drives the table tie breaks
	Rand *rand.Rand
}

// RunResult is what a training run leaves behind
type RunResult struct {
	RunID        string
	Mode         RewardMode
	Params       metrics.Params
	Size         grid.Size
	Obstacles    []grid.Coordinate
	History      *metrics.History
	Summary      metrics.Summary
	FirstSuccess int
	FinalEpsilon float64
	Visits       *grid.VisitDataSet
	Transitions  *VisitGraph
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Agent runs tabular Q-learning episodes on the fetch key task.
// Only one run can be active at a time.
type Agent struct {
	config  *AgentConfig
	table   *QTable
	running atomic.Bool
	history atomic.Pointer[metrics.History]

	// fixed for the duration of a run
	size      grid.Size
	obstacles grid.ObstacleSet

	// reset at the start of each episode
	position      grid.Coordinate
	previous      grid.Coordinate
	hasKey        bool
	steps         int
	episodeReward float64
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	r := config.Rand
	if r == nil {
		r = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	a := &Agent{
		config: config,
		table:  NewQTable(r),
	}
	a.history.Store(metrics.NewHistory())
	return a
}

func (a *Agent) Config() Config {
	return a.config.Config
}

// Table returns the value table of the last run
func (a *Agent) Table() *QTable {
	return a.table
}

// History returns the episode history of the current or last run
func (a *Agent) History() *metrics.History {
	return a.history.Load()
}

func (a *Agent) Running() bool {
	return a.running.Load()
}

// AddObserver must not be called while a run is active
func (a *Agent) AddObserver(o Observer) {
	a.config.Observers = append(a.config.Observers, o)
}

// Run trains for the configured number of episodes. The table, the
// exploration rate and the history are rebuilt at the start of every run.
// The context is checked between episodes, on cancellation the partial
// result is returned together with the context error.
func (a *Agent) Run(ctx context.Context) (*RunResult, error) {
	if a.config.Provider == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, ErrNoEnvironment)
	}
	if a.config.Reward == nil || a.config.Selector == nil {
		return nil, fmt.Errorf("%w: reward policy and action selector are required", ErrInvalidConfig)
	}
	if !a.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer a.running.Store(false)

	cfg := a.config.Config
	size := a.config.Provider.Size()
	if err := cfg.Validate(size); err != nil {
		return nil, err
	}
	a.size = size
	a.obstacles = grid.NewObstacleSet(a.config.Provider.Obstacles()...)
	for name, p := range map[string]grid.Coordinate{"start": cfg.Start, "key": cfg.Key, "goal": cfg.Goal} {
		if a.obstacles.Contains(p) {
			klog.Warningf("Obstacle placed on the %s cell %s", name, p)
		}
	}
	if err := a.table.Initialize(size, a.obstacles); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	a.config.Selector.Reset()
	if a.config.Shaper != nil {
		a.config.Shaper.Prepare(size, a.obstacles)
	}

	history := metrics.NewHistory()
	a.history.Store(history)
	result := &RunResult{
		RunID:        uuid.NewString(),
		Mode:         a.config.Reward.Mode(),
		Params:       cfg.Params(),
		Size:         size,
		Obstacles:    a.obstacles.List(),
		History:      history,
		FirstSuccess: metrics.NoSuccess,
		Visits:       grid.NewVisitDataSet(size),
		Transitions:  NewVisitGraph(),
		StartedAt:    time.Now(),
	}

	klog.InfoS("Starting training run",
		"run", result.RunID,
		"mode", result.Mode,
		"episodes", cfg.Episodes,
		"grid", size,
		"obstacles", len(a.obstacles),
	)
	for _, o := range a.config.Observers {
		if ro, ok := o.(RunObserver); ok {
			ro.OnRunStart(result.RunID, cfg.Episodes)
		}
	}

	var err error
	for episode := 0; episode < cfg.Episodes; episode++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		default:
		}
		if err != nil {
			klog.InfoS("Training run cancelled", "run", result.RunID, "episode", episode)
			break
		}

		record, trace := a.runEpisode(episode, result)
		history.Append(record)
		if record.Success && result.FirstSuccess == metrics.NoSuccess {
			result.FirstSuccess = episode
			klog.InfoS("First success", "run", result.RunID, "episode", episode, "steps", record.Steps)
		}
		a.config.Selector.Decay()

		if cfg.TracesFile != "" {
			a.recordTrace(cfg.TracesFile, trace)
		}
		for _, o := range a.config.Observers {
			if eo, ok := o.(EpisodeObserver); ok {
				eo.OnEpisode(record)
			}
		}
		if cfg.ReportEvery > 0 && episode%cfg.ReportEvery == 0 {
			stats := history.Window(cfg.ReportEvery)
			klog.InfoS("Training progress",
				"episode", episode,
				"total", cfg.Episodes,
				"reward", stats.MeanReward,
				"steps", stats.MeanSteps,
				"success", stats.SuccessRate,
				"epsilon", a.config.Selector.Epsilon(),
			)
		}
	}

	result.FinishedAt = time.Now()
	result.FinalEpsilon = a.config.Selector.Epsilon()
	result.Summary = metrics.Summarize(result.Params, history, cfg.SummaryWindow)
	klog.InfoS("Training run finished",
		"run", result.RunID,
		"episodes", history.Len(),
		"firstSuccess", result.FirstSuccess,
		"successRate", result.Summary.Final.SuccessRate,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)
	for _, o := range a.config.Observers {
		if ro, ok := o.(RunObserver); ok {
			ro.OnRunEnd(result)
		}
	}
	return result, err
}

func (a *Agent) recordTrace(path string, trace *Trace) {
	bs, err := json.Marshal(trace)
	if err != nil {
		klog.ErrorS(err, "Failed to encode trace", "episode", trace.Episode)
		return
	}
	if err := util.AppendToFile(path, string(bs)); err != nil {
		klog.ErrorS(err, "Failed to record trace", "path", path)
	}
}

func (a *Agent) resetEpisode() {
	cfg := a.config.Config
	a.position = cfg.Start
	a.previous = cfg.Start
	a.hasKey = false
	a.steps = 0
	a.episodeReward = 0
	if a.config.Shaper != nil {
		a.config.Shaper.Reset(cfg.Start)
	}
	for _, o := range a.config.Observers {
		o.OnKeyVisible(true)
	}
}

func (a *Agent) finished() bool {
	return a.position.Eq(a.config.Config.Goal) || a.steps >= a.config.Config.MaxSteps
}

// run a single episode and return its record and trace
func (a *Agent) runEpisode(episode int, result *RunResult) (metrics.EpisodeRecord, *Trace) {
	a.resetEpisode()
	trace := NewTrace(episode)
	result.Visits.Add(a.position)

	for !a.finished() {
		a.step(episode, trace)
		last, _ := trace.Last()
		result.Visits.Add(a.position)
		result.Transitions.Update(last.State, last.Action, last.NextState)
	}

	return metrics.EpisodeRecord{
		Episode: episode,
		Reward:  a.episodeReward,
		Steps:   a.steps,
		Epsilon: a.config.Selector.Epsilon(),
		Success: a.hasKey && a.position.Eq(a.config.Config.Goal),
	}, trace
}

func (a *Agent) step(episode int, trace *Trace) {
	cfg := a.config.Config
	state := NewStateKey(a.position, a.hasKey)

	valid := grid.ValidActions(a.position, a.size, a.obstacles)
	action := a.config.Selector.Select(state, a.table, valid)

	a.previous = a.position
	hadKey := a.hasKey
	if next := grid.Step(a.position, action); grid.Walkable(next, a.size, a.obstacles) {
		a.position = next
	}
	if !a.hasKey && a.position.Eq(cfg.Key) {
		a.hasKey = true
		for _, o := range a.config.Observers {
			o.OnKeyVisible(false)
		}
	}

	t := Transition{
		Current:  a.position,
		Previous: a.previous,
		HasKey:   hadKey,
		Key:      cfg.Key,
		Goal:     cfg.Goal,
		Episode:  episode,
	}
	reward := a.config.Reward.Reward(t)
	if a.config.Shaper != nil {
		reward -= a.config.Shaper.Penalty(t)
	}

	nextState := NewStateKey(a.position, a.hasKey)
	a.table.Update(state, action, reward, nextState, cfg.Alpha, cfg.Gamma)

	a.episodeReward += reward
	a.steps++
	trace.Append(state, action, reward, nextState)

	event := StepEvent{
		Episode:  episode,
		Step:     a.steps,
		Action:   action,
		Previous: a.previous,
		Position: a.position,
		HasKey:   a.hasKey,
		Reward:   reward,
	}
	for _, o := range a.config.Observers {
		o.OnStep(event)
	}
}
