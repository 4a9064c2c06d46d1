package types

import "github.com/zeu5/keygrid-rl/grid"

// RecentWindow is a fixed capacity FIFO of the last visited coordinates.
// The oldest entry is evicted when a push exceeds the capacity.
type RecentWindow struct {
	items []grid.Coordinate
	start int
	size  int
}

func NewRecentWindow(capacity int) *RecentWindow {
	if capacity < 0 {
		capacity = 0
	}
	return &RecentWindow{
		items: make([]grid.Coordinate, capacity),
	}
}

func (w *RecentWindow) Cap() int {
	return len(w.items)
}

func (w *RecentWindow) Len() int {
	return w.size
}

func (w *RecentWindow) Push(c grid.Coordinate) {
	if len(w.items) == 0 {
		return
	}
	if w.size < len(w.items) {
		w.items[(w.start+w.size)%len(w.items)] = c
		w.size++
		return
	}
	w.items[w.start] = c
	w.start = (w.start + 1) % len(w.items)
}

func (w *RecentWindow) Contains(c grid.Coordinate) bool {
	for i := 0; i < w.size; i++ {
		if w.items[(w.start+i)%len(w.items)].Eq(c) {
			return true
		}
	}
	return false
}

func (w *RecentWindow) Clear() {
	w.start = 0
	w.size = 0
}

// Items returns the window contents from oldest to newest
func (w *RecentWindow) Items() []grid.Coordinate {
	out := make([]grid.Coordinate, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.items[(w.start+i)%len(w.items)]
	}
	return out
}
