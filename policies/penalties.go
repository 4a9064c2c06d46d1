package policies

import (
	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/types"
)

// AntiDegeneracy penalizes staying in place, short loops and moves that
// lengthen or cut the shortest path to the target. Each source is toggled
// independently and every penalty is subtracted from the base reward.
type AntiDegeneracy struct {
	config types.PenaltyConfig
	mode   types.RewardMode
	recent *types.RecentWindow

	size      grid.Size
	obstacles grid.ObstacleSet
}

var _ types.Shaper = &AntiDegeneracy{}

func NewAntiDegeneracy(config types.PenaltyConfig, mode types.RewardMode) *AntiDegeneracy {
	return &AntiDegeneracy{
		config:    config,
		mode:      mode,
		recent:    types.NewRecentWindow(config.LoopWindow),
		obstacles: make(grid.ObstacleSet),
	}
}

func (p *AntiDegeneracy) Prepare(size grid.Size, obstacles grid.ObstacleSet) {
	p.size = size
	p.obstacles = obstacles
}

// Reset clears the recent positions and seeds them with the start
func (p *AntiDegeneracy) Reset(start grid.Coordinate) {
	p.recent.Clear()
	p.recent.Push(start)
}

// Recent returns the positions in the loop window, oldest first
func (p *AntiDegeneracy) Recent() []grid.Coordinate {
	return p.recent.Items()
}

func (p *AntiDegeneracy) Penalty(t types.Transition) float64 {
	return p.backtrack(t) + p.loop(t) + p.pathBlocked(t)
}

// any move that leaves the position unchanged counts, blocked moves included
func (p *AntiDegeneracy) backtrack(t types.Transition) float64 {
	if p.config.Backtrack && t.Stayed() {
		return p.config.BacktrackPenalty
	}
	return 0
}

func (p *AntiDegeneracy) loop(t types.Transition) float64 {
	if !p.config.Loop {
		return 0
	}
	penalty := 0.0
	if p.recent.Contains(t.Current) {
		penalty = p.config.LoopPenalty
	}
	p.recent.Push(t.Current)
	return penalty
}

func (p *AntiDegeneracy) pathBlocked(t types.Transition) float64 {
	if !p.config.PathAware || !p.mode.Shaped() {
		return 0
	}
	target := t.Target()
	before := grid.ShortestPathLength(t.Previous, target, p.size, p.obstacles)
	after := grid.ShortestPathLength(t.Current, target, p.size, p.obstacles)
	switch {
	case before != grid.Unreachable && after == grid.Unreachable:
		return p.config.PathBlockedPenalty
	case before != grid.Unreachable && after > before:
		return p.config.PathBlockedPenalty * 0.5
	}
	return 0
}
