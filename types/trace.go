package types

import "github.com/zeu5/keygrid-rl/grid"

// TraceStep is one (state, action, reward, nextState) entry
type TraceStep struct {
	State     StateKey    `json:"state"`
	Action    grid.Action `json:"action"`
	Reward    float64     `json:"reward"`
	NextState StateKey    `json:"next_state"`
}

// Trace of an episode
type Trace struct {
	Episode int         `json:"episode"`
	Steps   []TraceStep `json:"steps"`
}

func NewTrace(episode int) *Trace {
	return &Trace{
		Episode: episode,
		Steps:   make([]TraceStep, 0),
	}
}

func (t *Trace) Append(state StateKey, action grid.Action, reward float64, nextState StateKey) {
	t.Steps = append(t.Steps, TraceStep{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: nextState,
	})
}

func (t *Trace) Len() int {
	return len(t.Steps)
}

func (t *Trace) Get(i int) (TraceStep, bool) {
	if i < 0 || i >= len(t.Steps) {
		return TraceStep{}, false
	}
	return t.Steps[i], true
}

func (t *Trace) Last() (TraceStep, bool) {
	return t.Get(len(t.Steps) - 1)
}

func (t *Trace) Slice(from, to int) *Trace {
	sliced := NewTrace(t.Episode)
	for i := from; i < to && i < len(t.Steps); i++ {
		sliced.Steps = append(sliced.Steps, t.Steps[i])
	}
	return sliced
}

// Positions lists the visited cells, starting with the initial one
func (t *Trace) Positions() []grid.Coordinate {
	if len(t.Steps) == 0 {
		return []grid.Coordinate{}
	}
	out := make([]grid.Coordinate, 0, len(t.Steps)+1)
	out = append(out, t.Steps[0].State.Position)
	for _, s := range t.Steps {
		out = append(out, s.NextState.Position)
	}
	return out
}
