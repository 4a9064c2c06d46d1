package types

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeu5/keygrid-rl/grid"
)

func TestVisitGraph(t *testing.T) {
	g := NewVisitGraph()
	start := NewStateKey(grid.Coordinate{}, false)
	right := NewStateKey(grid.Coordinate{X: 1}, false)

	if !g.Update(start, grid.Right, right) {
		t.Errorf("expected the first transition to add a new state")
	}
	if g.Update(start, grid.Right, right) {
		t.Errorf("repeated transition reported a new state")
	}
	g.Update(start, grid.Left, start)

	states, pairs := g.Coverage()
	if states != 1 || pairs != 2 {
		t.Errorf("expected 1 state and 2 pairs, got %d %d", states, pairs)
	}
	if g.GetVisits()[start] != 3 || g.GetVisits()[right] != 0 {
		t.Errorf("unexpected visits %v", g.GetVisits())
	}
	if !g.Nodes[right].Prev[grid.Right][start] {
		t.Errorf("missing backward edge")
	}

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := g.Record(path); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	records := []nodeRecord{}
	if err := json.Unmarshal(bs, &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].State != start || records[0].Next["Right"][0] != "1,0,0" {
		t.Errorf("unexpected recorded graph %+v", records)
	}
}

func TestAgentRecordsTransitions(t *testing.T) {
	agent, _, _ := newScriptedAgent(corridorConfig(), []grid.Action{grid.Right})
	result, err := agent.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	states, pairs := result.Transitions.Coverage()
	if states != 2 || pairs != 2 {
		t.Errorf("expected the two corridor moves, got %d states %d pairs", states, pairs)
	}
	start := NewStateKey(grid.Coordinate{}, false)
	if result.Transitions.Nodes[start].Visits != 3 {
		t.Errorf("expected one visit of the start per episode, got %d", result.Transitions.Nodes[start].Visits)
	}
}
