package policies

import (
	"fmt"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/types"
)

const (
	LivingPenalty      = -0.01
	KeyReward          = 10.0
	GoalReward         = 100.0
	GoalWithoutKeyCost = -5.0
)

// terminalReward handles the key and goal events which take precedence
// over the living penalty and the shaping term
func terminalReward(t types.Transition) (float64, bool) {
	if !t.HasKey && t.Current.Eq(t.Key) {
		return KeyReward, true
	}
	if t.HasKey && t.Current.Eq(t.Goal) {
		return GoalReward, true
	}
	if !t.HasKey && t.Current.Eq(t.Goal) {
		return GoalWithoutKeyCost, true
	}
	return 0, false
}

// distanceGain is positive when the move got closer to the target
func distanceGain(t types.Transition) float64 {
	target := t.Target()
	return float64(grid.ManhattanDistance(t.Previous, target) - grid.ManhattanDistance(t.Current, target))
}

// SparseReward only rewards the key and goal events
type SparseReward struct{}

var _ types.RewardPolicy = SparseReward{}

func (SparseReward) Reward(t types.Transition) float64 {
	if r, ok := terminalReward(t); ok {
		return r
	}
	return LivingPenalty
}

func (SparseReward) Mode() types.RewardMode {
	return types.Sparse
}

// DistanceReward adds Shaping times the Manhattan distance gained towards the target
type DistanceReward struct {
	Shaping float64
}

var _ types.RewardPolicy = DistanceReward{}

func (d DistanceReward) Reward(t types.Transition) float64 {
	if r, ok := terminalReward(t); ok {
		return r
	}
	return LivingPenalty + d.Shaping*distanceGain(t)
}

func (DistanceReward) Mode() types.RewardMode {
	return types.DistanceBased
}

// DecayingReward scales the distance shaping by Lambda/(Lambda+episode)
// so that training anneals towards the sparse task
type DecayingReward struct {
	Shaping float64
	Lambda  float64
}

var _ types.RewardPolicy = DecayingReward{}

func (d DecayingReward) DecayFactor(episode int) float64 {
	return d.Lambda / (d.Lambda + float64(episode))
}

func (d DecayingReward) Reward(t types.Transition) float64 {
	if r, ok := terminalReward(t); ok {
		return r
	}
	return LivingPenalty + d.Shaping*d.DecayFactor(t.Episode)*distanceGain(t)
}

func (DecayingReward) Mode() types.RewardMode {
	return types.Decaying
}

// NewRewardPolicy builds the policy selected by the configured mode
func NewRewardPolicy(cfg types.Config) (types.RewardPolicy, error) {
	switch cfg.RewardMode {
	case types.Sparse:
		return SparseReward{}, nil
	case types.DistanceBased:
		return DistanceReward{Shaping: cfg.Shaping}, nil
	case types.Decaying:
		return DecayingReward{Shaping: cfg.Shaping, Lambda: cfg.Lambda}, nil
	}
	return nil, fmt.Errorf("%w: unknown reward mode %q", types.ErrInvalidConfig, cfg.RewardMode)
}
