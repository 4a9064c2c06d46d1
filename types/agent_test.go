package types

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
	"golang.org/x/exp/rand"
)

type scriptedSelector struct {
	script  []grid.Action
	next    int
	epsilon float64
	decays  int
	resets  int
}

func (s *scriptedSelector) Select(_ StateKey, _ *QTable, _ []grid.Action) grid.Action {
	a := s.script[s.next%len(s.script)]
	s.next++
	return a
}

func (s *scriptedSelector) Epsilon() float64 { return s.epsilon }
func (s *scriptedSelector) Decay()           { s.decays++; s.epsilon /= 2 }
func (s *scriptedSelector) Reset()           { s.resets++; s.next = 0; s.epsilon = 1 }

type recordingReward struct {
	transitions []Transition
}

func (r *recordingReward) Reward(t Transition) float64 {
	r.transitions = append(r.transitions, t)
	return 1
}

func (r *recordingReward) Mode() RewardMode { return Sparse }

type recordingObserver struct {
	steps    []StepEvent
	visible  []bool
	episodes []metrics.EpisodeRecord
	onStep   func(StepEvent)
	onEp     func(metrics.EpisodeRecord)
}

func (o *recordingObserver) OnStep(e StepEvent) {
	o.steps = append(o.steps, e)
	if o.onStep != nil {
		o.onStep(e)
	}
}

func (o *recordingObserver) OnKeyVisible(v bool) { o.visible = append(o.visible, v) }

func (o *recordingObserver) OnEpisode(r metrics.EpisodeRecord) {
	o.episodes = append(o.episodes, r)
	if o.onEp != nil {
		o.onEp(r)
	}
}

// corridor of three cells: start, key, goal
func corridorConfig() Config {
	cfg := DefaultConfig()
	cfg.Grid = grid.Size{Width: 3, Height: 1}
	cfg.Start = grid.Coordinate{X: 0, Y: 0}
	cfg.Key = grid.Coordinate{X: 1, Y: 0}
	cfg.Goal = grid.Coordinate{X: 2, Y: 0}
	cfg.Episodes = 3
	cfg.MaxSteps = 5
	cfg.ReportEvery = 0
	return cfg
}

func newScriptedAgent(cfg Config, script []grid.Action, obs ...Observer) (*Agent, *scriptedSelector, *recordingReward) {
	selector := &scriptedSelector{script: script}
	reward := &recordingReward{}
	agent := NewAgent(&AgentConfig{
		Config:    cfg,
		Provider:  &StaticGrid{GridSize: cfg.Grid},
		Reward:    reward,
		Selector:  selector,
		Observers: obs,
		Rand:      rand.New(rand.NewSource(1)),
	})
	return agent, selector, reward
}

func TestAgentStepOrder(t *testing.T) {
	obs := &recordingObserver{}
	agent, selector, reward := newScriptedAgent(corridorConfig(), []grid.Action{grid.Right}, obs)

	result, err := agent.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result.History.Len() != 3 || result.FirstSuccess != 0 {
		t.Fatalf("expected 3 episodes with first success at 0, got %d %d", result.History.Len(), result.FirstSuccess)
	}
	for _, r := range result.History.Records() {
		if !r.Success || r.Steps != 2 || r.Reward != 2 {
			t.Errorf("unexpected record %+v", r)
		}
	}

	// the reward sees the holding flag from before the move
	if reward.transitions[0].HasKey || !reward.transitions[0].Current.Eq(grid.Coordinate{X: 1}) {
		t.Errorf("unexpected first transition %+v", reward.transitions[0])
	}
	if !reward.transitions[1].HasKey || !reward.transitions[1].Current.Eq(grid.Coordinate{X: 2}) {
		t.Errorf("unexpected second transition %+v", reward.transitions[1])
	}

	if len(obs.steps) != 6 {
		t.Errorf("expected one notification per step, got %d", len(obs.steps))
	}
	if !obs.steps[0].HasKey || obs.steps[0].Step != 1 {
		t.Errorf("step event should report the post move state: %+v", obs.steps[0])
	}
	if len(obs.visible) != 6 || !obs.visible[0] || obs.visible[1] {
		t.Errorf("unexpected key visibility notifications %v", obs.visible)
	}
	if len(obs.episodes) != 3 {
		t.Errorf("expected 3 episode notifications, got %d", len(obs.episodes))
	}

	if selector.resets != 1 || selector.decays != 3 {
		t.Errorf("expected 1 reset and 3 decays, got %d %d", selector.resets, selector.decays)
	}
	// epsilon is recorded before the decay of the episode
	records := result.History.Records()
	if records[0].Epsilon != 1 || records[1].Epsilon != 0.5 || result.FinalEpsilon != 0.125 {
		t.Errorf("unexpected epsilon schedule %v %v %v", records[0].Epsilon, records[1].Epsilon, result.FinalEpsilon)
	}

	// Q(start, Right) = alpha * 1 after the first update, the table is rebuilt per run
	start := NewStateKey(grid.Coordinate{}, false)
	if v := agent.Table().Value(start, grid.Right); v <= 0 {
		t.Errorf("expected a positive value for Right at the start, got %f", v)
	}
}

func TestAgentBlockedMoveAndStepLimit(t *testing.T) {
	cfg := corridorConfig()
	cfg.Episodes = 1
	agent, _, reward := newScriptedAgent(cfg, []grid.Action{grid.Left})

	result, err := agent.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	rec := result.History.Records()[0]
	if rec.Steps != cfg.MaxSteps || rec.Success {
		t.Errorf("expected the episode to hit the step limit, got %+v", rec)
	}
	for _, tr := range reward.transitions {
		if !tr.Stayed() {
			t.Errorf("blocked move changed the position: %+v", tr)
		}
	}
	if result.FirstSuccess != metrics.NoSuccess {
		t.Errorf("expected no success")
	}
	if result.Visits.Count(cfg.Start) != cfg.MaxSteps+1 {
		t.Errorf("expected %d visits of the start, got %d", cfg.MaxSteps+1, result.Visits.Count(cfg.Start))
	}
}

func TestAgentRejectsConcurrentRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	once := false
	obs := &recordingObserver{onStep: func(StepEvent) {
		if !once {
			once = true
			close(started)
			<-release
		}
	}}
	agent, _, _ := newScriptedAgent(corridorConfig(), []grid.Action{grid.Right}, obs)

	done := make(chan error, 1)
	go func() {
		_, err := agent.Run(context.Background())
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not start")
	}
	if !agent.Running() {
		t.Errorf("expected the agent to report a run in progress")
	}
	if _, err := agent.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Errorf("first run failed: %s", err)
	}
	if agent.Running() {
		t.Errorf("run guard not released")
	}
	if _, err := agent.Run(context.Background()); err != nil {
		t.Errorf("expected a new run to start after the first one, got %v", err)
	}
}

func TestAgentCancellationAtEpisodeBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	obs := &recordingObserver{}
	obs.onEp = func(r metrics.EpisodeRecord) {
		if r.Episode == 1 {
			cancel()
		}
	}
	cfg := corridorConfig()
	cfg.Episodes = 10
	agent, _, _ := newScriptedAgent(cfg, []grid.Action{grid.Right}, obs)

	result, err := agent.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancelled, got %v", err)
	}
	if result == nil || result.History.Len() != 2 {
		t.Fatalf("expected a partial result with 2 episodes")
	}
}

func TestAgentConfigurationErrors(t *testing.T) {
	cfg := corridorConfig()
	agent := NewAgent(&AgentConfig{Config: cfg, Reward: &recordingReward{}, Selector: &scriptedSelector{}})
	if _, err := agent.Run(context.Background()); !errors.Is(err, ErrNoEnvironment) {
		t.Errorf("expected ErrNoEnvironment, got %v", err)
	}

	cfg.Goal = grid.Coordinate{X: 3, Y: 0}
	agent, _, _ = newScriptedAgent(cfg, []grid.Action{grid.Right})
	if _, err := agent.Run(context.Background()); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if agent.Running() {
		t.Errorf("failed start must release the run guard")
	}
}
