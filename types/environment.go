package types

import (
	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
)

// GridProvider supplies the grid dimensions and the obstacles.
// The obstacles must never include the start, key or goal cells.
type GridProvider interface {
	Size() grid.Size
	Obstacles() []grid.Coordinate
}

// StaticGrid is a fixed GridProvider
type StaticGrid struct {
	GridSize     grid.Size
	ObstacleList []grid.Coordinate
}

var _ GridProvider = &StaticGrid{}

func (s *StaticGrid) Size() grid.Size {
	return s.GridSize
}

func (s *StaticGrid) Obstacles() []grid.Coordinate {
	return s.ObstacleList
}

// Transition describes a single move for the reward policy and the penalties.
// HasKey is the holding flag from before the move.
type Transition struct {
	Current  grid.Coordinate
	Previous grid.Coordinate
	HasKey   bool
	Key      grid.Coordinate
	Goal     grid.Coordinate
	Episode  int
}

// Target is the key until it is collected and then the goal
func (t Transition) Target() grid.Coordinate {
	if t.HasKey {
		return t.Goal
	}
	return t.Key
}

// Stayed is true when the move did not change the position
func (t Transition) Stayed() bool {
	return t.Current.Eq(t.Previous)
}

// RewardPolicy computes the base reward of a transition
type RewardPolicy interface {
	Reward(Transition) float64
	Mode() RewardMode
}

// ActionSelector picks the next action and owns the exploration rate
type ActionSelector interface {
	// Select an action for the state, valid lists the actions leading to walkable cells
	Select(state StateKey, table *QTable, valid []grid.Action) grid.Action
	// Epsilon returns the current exploration rate
	Epsilon() float64
	// Decay is called once per completed episode
	Decay()
	// Reset restores the initial exploration rate
	Reset()
}

// Shaper computes penalties subtracted from the base reward
type Shaper interface {
	// Prepare is called once at the start of a run
	Prepare(size grid.Size, obstacles grid.ObstacleSet)
	// Reset is called at the start of each episode
	Reset(start grid.Coordinate)
	// Penalty returns the non-negative amount to subtract for the transition
	Penalty(Transition) float64
}

// StepEvent is delivered to observers once per step
type StepEvent struct {
	Episode  int             `json:"episode"`
	Step     int             `json:"step"`
	Action   grid.Action     `json:"action"`
	Previous grid.Coordinate `json:"previous"`
	Position grid.Coordinate `json:"position"`
	HasKey   bool            `json:"has_key"`
	Reward   float64         `json:"reward"`
}

// Observer is notified synchronously after each step, the next step
// starts only after OnStep returns. Observers must not affect learning.
type Observer interface {
	OnStep(StepEvent)
	OnKeyVisible(bool)
}

// EpisodeObserver is optionally implemented by observers interested in completed episodes
type EpisodeObserver interface {
	OnEpisode(metrics.EpisodeRecord)
}

// RunObserver is optionally implemented by observers interested in run boundaries
type RunObserver interface {
	OnRunStart(runID string, episodes int)
	OnRunEnd(*RunResult)
}
