package types

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/util"
	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"
)

// QTable maps every walkable state to one value per action.
// A position is present with both key flags or not at all.
type QTable struct {
	table map[StateKey][grid.NumActions]float64
	rand  *rand.Rand
}

func NewQTable(r *rand.Rand) *QTable {
	return &QTable{
		table: make(map[StateKey][grid.NumActions]float64),
		rand:  r,
	}
}

// Initialize clears the table and inserts zeroed entries for every
// in-bounds cell that is not an obstacle
func (q *QTable) Initialize(size grid.Size, obstacles grid.ObstacleSet) error {
	if !size.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidGrid, size)
	}
	q.table = make(map[StateKey][grid.NumActions]float64, size.Cells()*2)
	for x := 0; x < size.Width; x++ {
		for y := 0; y < size.Height; y++ {
			c := grid.Coordinate{X: x, Y: y}
			if obstacles.Contains(c) {
				continue
			}
			q.table[NewStateKey(c, false)] = [grid.NumActions]float64{}
			q.table[NewStateKey(c, true)] = [grid.NumActions]float64{}
		}
	}
	klog.V(2).InfoS("Initialized Q table", "grid", size, "obstacles", len(obstacles), "states", len(q.table))
	return nil
}

func (q *QTable) Len() int {
	return len(q.table)
}

func (q *QTable) Has(s StateKey) bool {
	_, ok := q.table[s]
	return ok
}

// Values returns the action values of the state, zeros if absent
func (q *QTable) Values(s StateKey) [grid.NumActions]float64 {
	return q.table[s]
}

func (q *QTable) Value(s StateKey, a grid.Action) float64 {
	if !a.Valid() {
		return 0
	}
	vals := q.table[s]
	return vals[a]
}

// Max returns the largest action value of the state, 0 if absent
func (q *QTable) Max(s StateKey) float64 {
	vals, ok := q.table[s]
	if !ok {
		return 0
	}
	max := math.Inf(-1)
	for _, v := range vals {
		if v > max {
			max = v
		}
	}
	return max
}

// BestAction returns the action with the highest value. Exact ties are
// broken uniformly at random. Absent states get a random action.
func (q *QTable) BestAction(s StateKey) grid.Action {
	vals, ok := q.table[s]
	if !ok {
		return grid.Action(q.rand.Intn(grid.NumActions))
	}
	max := q.Max(s)
	best := make([]grid.Action, 0, grid.NumActions)
	for i, v := range vals {
		if v == max {
			best = append(best, grid.Action(i))
		}
	}
	if len(best) == 1 {
		return best[0]
	}
	return best[q.rand.Intn(len(best))]
}

// Greedy returns the first action with the highest value without any
// randomness, ok is false when the state is absent or all values are equal
func (q *QTable) Greedy(s StateKey) (grid.Action, bool) {
	vals, ok := q.table[s]
	if !ok {
		return grid.Up, false
	}
	best := grid.Up
	tied := true
	for i := 1; i < grid.NumActions; i++ {
		if vals[i] != vals[0] {
			tied = false
		}
		if vals[i] > vals[best] {
			best = grid.Action(i)
		}
	}
	return best, !tied
}

// Update applies Q(s,a) += alpha * (reward + gamma * max Q(s') - Q(s,a)).
// Returns false and leaves the table unchanged if either state is absent.
func (q *QTable) Update(s StateKey, a grid.Action, reward float64, next StateKey, alpha, gamma float64) bool {
	vals, ok := q.table[s]
	if !ok {
		klog.Warningf("Q update skipped: state %s not in table", s)
		return false
	}
	if !q.Has(next) {
		klog.Warningf("Q update skipped: next state %s not in table", next)
		return false
	}
	if !a.Valid() {
		klog.Warningf("Q update skipped: invalid action %d", int(a))
		return false
	}
	current := vals[a]
	vals[a] = current + alpha*(reward+gamma*q.Max(next)-current)
	q.table[s] = vals
	return true
}

// QEntry is the persisted form of one state of the table
type QEntry struct {
	State  StateKey                 `json:"state"`
	Values [grid.NumActions]float64 `json:"values"`
}

// Entries lists the table sorted by position, states without the key first
func (q *QTable) Entries() []QEntry {
	out := make([]QEntry, 0, len(q.table))
	for s, v := range q.table {
		out = append(out, QEntry{State: s, Values: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].State, out[j].State
		if a.HasKey != b.HasKey {
			return !a.HasKey
		}
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}
		return a.Position.X < b.Position.X
	})
	return out
}

// Record writes the table to path, one JSON entry per line
func (q *QTable) Record(path string) error {
	lines := make([]string, 0, len(q.table))
	for _, e := range q.Entries() {
		bs, err := json.Marshal(e)
		if err != nil {
			return err
		}
		lines = append(lines, string(bs))
	}
	return util.WriteToFile(path, lines...)
}

// Read replaces the table with the entries recorded at path
func (q *QTable) Read(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	table := make(map[StateKey][grid.NumActions]float64)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		bs := scanner.Bytes()
		if len(bs) == 0 {
			continue
		}
		e := QEntry{}
		if err := json.Unmarshal(bs, &e); err != nil {
			return fmt.Errorf("error parsing q table entry: %w", err)
		}
		table[e.State] = e.Values
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read q table: %w", err)
	}
	q.table = table
	return nil
}
