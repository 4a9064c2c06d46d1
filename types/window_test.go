package types

import (
	"testing"

	"github.com/zeu5/keygrid-rl/grid"
)

func TestRecentWindowEviction(t *testing.T) {
	w := NewRecentWindow(3)
	for i := 0; i < 5; i++ {
		w.Push(grid.Coordinate{X: i})
	}
	if w.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", w.Len())
	}
	items := w.Items()
	for i, want := range []int{2, 3, 4} {
		if items[i].X != want {
			t.Errorf("item %d: expected x=%d, got %s", i, want, items[i])
		}
	}
	if w.Contains(grid.Coordinate{X: 1}) {
		t.Errorf("evicted coordinate still in the window")
	}
	if !w.Contains(grid.Coordinate{X: 2}) {
		t.Errorf("oldest retained coordinate missing")
	}

	w.Clear()
	if w.Len() != 0 || w.Contains(grid.Coordinate{X: 4}) {
		t.Errorf("expected an empty window after clear")
	}
}

func TestRecentWindowZeroCapacity(t *testing.T) {
	w := NewRecentWindow(0)
	w.Push(grid.Coordinate{X: 1})
	if w.Len() != 0 || w.Contains(grid.Coordinate{X: 1}) {
		t.Errorf("zero capacity window should stay empty")
	}
}
