package policies

import (
	"time"

	"github.com/zeu5/keygrid-rl/types"
	"golang.org/x/exp/rand"
)

// NewRand returns a seeded random source, seed 0 seeds from the clock
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}

// NewAgent assembles an agent from the configuration: reward policy for the
// configured mode, anti-degeneracy penalties and epsilon-greedy selection
func NewAgent(cfg types.Config, provider types.GridProvider, observers ...types.Observer) (*types.Agent, error) {
	reward, err := NewRewardPolicy(cfg)
	if err != nil {
		return nil, err
	}
	r := NewRand(cfg.Seed)
	return types.NewAgent(&types.AgentConfig{
		Config:    cfg,
		Provider:  provider,
		Reward:    reward,
		Selector:  NewEpsilonGreedy(cfg.Epsilon, cfg.EpsilonDecay, cfg.MinEpsilon, rand.New(rand.NewSource(r.Uint64()))),
		Shaper:    NewAntiDegeneracy(cfg.Penalties, cfg.RewardMode),
		Observers: observers,
		Rand:      r,
	}), nil
}
