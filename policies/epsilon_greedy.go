package policies

import (
	"math"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// EpsilonGreedy explores uniformly among the valid actions with probability
// epsilon and follows the table otherwise. Epsilon decays geometrically
// once per episode and never drops below the minimum.
type EpsilonGreedy struct {
	initial float64
	epsilon float64
	decay   float64
	min     float64
	rand    *rand.Rand
}

var _ types.ActionSelector = &EpsilonGreedy{}

func NewEpsilonGreedy(epsilon, decay, min float64, r *rand.Rand) *EpsilonGreedy {
	return &EpsilonGreedy{
		initial: epsilon,
		epsilon: epsilon,
		decay:   decay,
		min:     min,
		rand:    r,
	}
}

func (e *EpsilonGreedy) Select(state types.StateKey, table *types.QTable, valid []grid.Action) grid.Action {
	if e.rand.Float64() < e.epsilon {
		return e.explore(valid)
	}
	return table.BestAction(state)
}

// explore picks uniformly among the valid actions, or among all of them
// when the cell is boxed in
func (e *EpsilonGreedy) explore(valid []grid.Action) grid.Action {
	if len(valid) == 0 {
		valid = grid.AllActions
	}
	weights := make([]float64, len(valid))
	for i := range weights {
		weights[i] = 1
	}
	i, ok := sampleuv.NewWeighted(weights, e.rand).Take()
	if !ok {
		return valid[e.rand.Intn(len(valid))]
	}
	return valid[i]
}

func (e *EpsilonGreedy) Epsilon() float64 {
	return e.epsilon
}

func (e *EpsilonGreedy) Decay() {
	e.epsilon = math.Max(e.min, e.epsilon*e.decay)
}

func (e *EpsilonGreedy) Reset() {
	e.epsilon = e.initial
}
