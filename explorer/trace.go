package explorer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/types"
)

// ParseStateKey reads a state in the "x,y,k" form printed by StateKey.String
func ParseStateKey(s string) (types.StateKey, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return types.StateKey{}, fmt.Errorf("expected x,y,k got %q", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return types.StateKey{}, fmt.Errorf("invalid state %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] != 0 && vals[2] != 1 {
		return types.StateKey{}, fmt.Errorf("invalid key flag %d", vals[2])
	}
	return types.NewStateKey(grid.Coordinate{X: vals[0], Y: vals[1]}, vals[2] == 1), nil
}

// TraceSummary is a one line description of a recorded episode
type TraceSummary struct {
	Episode   int
	Steps     int
	Reward    float64
	KeyStep   int
	Final     grid.Coordinate
	EndHasKey bool
}

// Summarize a trace, KeyStep is 0 when the key was never picked up
func Summarize(t *types.Trace) TraceSummary {
	s := TraceSummary{Episode: t.Episode, Steps: t.Len()}
	for i, step := range t.Steps {
		s.Reward += step.Reward
		if s.KeyStep == 0 && !step.State.HasKey && step.NextState.HasKey {
			s.KeyStep = i + 1
		}
	}
	if last, ok := t.Last(); ok {
		s.Final = last.NextState.Position
		s.EndHasKey = last.NextState.HasKey
	}
	return s
}

func (s TraceSummary) String() string {
	key := "never"
	if s.KeyStep > 0 {
		key = fmt.Sprintf("step %d", s.KeyStep)
	}
	return fmt.Sprintf("Episode %d: %d steps, reward %.2f, key %s, ended at %s", s.Episode, s.Steps, s.Reward, key, s.Final)
}
