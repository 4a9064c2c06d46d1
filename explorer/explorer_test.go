package explorer

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/types"
	"github.com/zeu5/keygrid-rl/util"
	"golang.org/x/exp/rand"
)

func corridorTrace(episode int) *types.Trace {
	t := types.NewTrace(episode)
	t.Append(types.NewStateKey(grid.Coordinate{X: 0}, false), grid.Right, 10, types.NewStateKey(grid.Coordinate{X: 1}, true))
	t.Append(types.NewStateKey(grid.Coordinate{X: 1}, true), grid.Right, 100, types.NewStateKey(grid.Coordinate{X: 2}, true))
	return t
}

func writeTraces(t *testing.T, traces ...*types.Trace) string {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	for _, tr := range traces {
		bs, err := json.Marshal(tr)
		if err != nil {
			t.Fatal(err)
		}
		if err := util.AppendToFile(path, string(bs)); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

type recorder struct {
	events  []types.StepEvent
	visible []bool
}

func (r *recorder) OnStep(e types.StepEvent) { r.events = append(r.events, e) }
func (r *recorder) OnKeyVisible(v bool)      { r.visible = append(r.visible, v) }

func TestReadTraces(t *testing.T) {
	path := writeTraces(t, corridorTrace(0), corridorTrace(7))
	traces, err := ReadTraces(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(traces) != 2 || traces[1].Episode != 7 || traces[1].Len() != 2 {
		t.Fatalf("unexpected traces %+v", traces)
	}

	broken := types.NewTrace(1)
	broken.Append(types.NewStateKey(grid.Coordinate{}, false), grid.Up, 0, types.NewStateKey(grid.Coordinate{Y: 1}, false))
	broken.Append(types.NewStateKey(grid.Coordinate{X: 3}, false), grid.Up, 0, types.NewStateKey(grid.Coordinate{X: 3, Y: 1}, false))
	if _, err := ReadTraces(writeTraces(t, broken)); err == nil {
		t.Errorf("expected an error for a non contiguous trace")
	}
	if _, err := ReadTraces(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestReplay(t *testing.T) {
	r := &recorder{}
	Replay(corridorTrace(3), r)
	if len(r.events) != 2 {
		t.Fatalf("expected 2 step events, got %d", len(r.events))
	}
	if r.events[0].Episode != 3 || r.events[0].Step != 1 || !r.events[0].HasKey || !r.events[0].Position.Eq(grid.Coordinate{X: 1}) {
		t.Errorf("unexpected first event %+v", r.events[0])
	}
	if len(r.visible) != 2 || !r.visible[0] || r.visible[1] {
		t.Errorf("unexpected key visibility %v", r.visible)
	}
}

func TestParseStateKey(t *testing.T) {
	s, err := ParseStateKey(" 3,4,1 ")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Position.Eq(grid.Coordinate{X: 3, Y: 4}) || !s.HasKey {
		t.Errorf("unexpected state %+v", s)
	}
	for _, bad := range []string{"3,4", "a,b,c", "1,1,2"} {
		if _, err := ParseStateKey(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(corridorTrace(2))
	if s.Steps != 2 || s.Reward != 110 || s.KeyStep != 1 || !s.Final.Eq(grid.Coordinate{X: 2}) || !s.EndHasKey {
		t.Errorf("unexpected summary %+v", s)
	}
	if !strings.Contains(s.String(), "key step 1") {
		t.Errorf("unexpected text %q", s.String())
	}
}

func TestExplorerInteract(t *testing.T) {
	dir := t.TempDir()
	size := grid.Size{Width: 3, Height: 1}
	table := types.NewQTable(rand.New(rand.NewSource(1)))
	if err := table.Initialize(size, grid.NewObstacleSet()); err != nil {
		t.Fatal(err)
	}
	table.Update(types.NewStateKey(grid.Coordinate{}, false), grid.Right, 10, types.NewStateKey(grid.Coordinate{X: 1}, true), 0.5, 0.9)
	policy := filepath.Join(dir, "policy.jsonl")
	if err := table.Record(policy); err != nil {
		t.Fatal(err)
	}

	exp, err := NewExplorer(policy, writeTraces(t, corridorTrace(0)))
	if err != nil {
		t.Fatal(err)
	}
	if exp.Table.Len() != 6 || exp.Table.Value(types.NewStateKey(grid.Coordinate{}, false), grid.Right) != 5 {
		t.Errorf("q table not restored")
	}

	in := strings.NewReader("1\n2\n0,0,0\n3\n1\ns\nd\nq\n4\n")
	out := &bytes.Buffer{}
	exp.Interact(in, out)
	s := out.String()
	for _, expected := range []string{"Episode 0: 2 steps", "Right: 5.000000", "For step 2", "Quitting!"} {
		if !strings.Contains(s, expected) {
			t.Errorf("output is missing %q", expected)
		}
	}

	// the loop also stops at the end of the input
	exp.Interact(strings.NewReader("1\n"), &bytes.Buffer{})
}
