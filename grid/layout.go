package grid

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/exp/rand"
)

// Layout is a mutable obstacle layout over a fixed size grid.
// Protected cells (start, key and goal) never become obstacles.
// A Layout is safe for concurrent use.
type Layout struct {
	size      Size
	protected ObstacleSet

	lock      sync.RWMutex
	obstacles ObstacleSet
}

func NewLayout(size Size, protected ...Coordinate) *Layout {
	return &Layout{
		size:      size,
		protected: NewObstacleSet(protected...),
		obstacles: make(ObstacleSet),
	}
}

func (l *Layout) Size() Size {
	return l.size
}

// Obstacles returns a snapshot of the current obstacles
func (l *Layout) Obstacles() []Coordinate {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.obstacles.List()
}

func (l *Layout) IsObstacle(c Coordinate) bool {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.obstacles.Contains(c)
}

func (l *Layout) IsProtected(c Coordinate) bool {
	return l.protected.Contains(c)
}

func (l *Layout) Len() int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return len(l.obstacles)
}

// Add places an obstacle, returns false if the cell is protected,
// out of bounds or already blocked
func (l *Layout) Add(c Coordinate) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.add(c)
}

func (l *Layout) add(c Coordinate) bool {
	if !l.size.Contains(c) || l.protected.Contains(c) || l.obstacles.Contains(c) {
		return false
	}
	l.obstacles[c] = true
	return true
}

func (l *Layout) Remove(c Coordinate) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.obstacles.Contains(c) {
		return false
	}
	delete(l.obstacles, c)
	return true
}

// Toggle flips the cell and reports whether it is now an obstacle
func (l *Layout) Toggle(c Coordinate) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.obstacles.Contains(c) {
		delete(l.obstacles, c)
		return false
	}
	return l.add(c)
}

func (l *Layout) Clear() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.obstacles = make(ObstacleSet)
}

// Randomize clears the layout and places up to count obstacles at random cells.
// At most 5*count cells are drawn, so fewer obstacles may be placed on crowded grids.
// Returns the number of obstacles placed.
func (l *Layout) Randomize(count int, r *rand.Rand) int {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.obstacles = make(ObstacleSet)
	placed := 0
	for tries := 0; placed < count && tries < count*5; tries++ {
		c := Coordinate{X: r.Intn(l.size.Width), Y: r.Intn(l.size.Height)}
		if l.add(c) {
			placed++
		}
	}
	return placed
}

type layoutFile struct {
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Obstacles []Coordinate `json:"obstacles"`
}

// Save writes the layout as indented JSON
func (l *Layout) Save(path string) error {
	l.lock.RLock()
	data := layoutFile{
		Width:     l.size.Width,
		Height:    l.size.Height,
		Obstacles: l.obstacles.List(),
	}
	l.lock.RUnlock()

	bs, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding layout: %w", err)
	}
	return os.WriteFile(path, bs, 0644)
}

// Load replaces the current obstacles with the ones stored at path.
// Protected and out of bounds cells in the file are skipped.
// Returns the number of obstacles loaded.
func (l *Layout) Load(path string) (int, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	data := &layoutFile{}
	if err := json.Unmarshal(bs, data); err != nil {
		return 0, fmt.Errorf("parsing layout %s: %w", path, err)
	}

	l.lock.Lock()
	defer l.lock.Unlock()
	l.obstacles = make(ObstacleSet)
	loaded := 0
	for _, c := range data.Obstacles {
		if l.add(c) {
			loaded++
		}
	}
	return loaded, nil
}
