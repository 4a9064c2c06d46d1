package types

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/zeu5/keygrid-rl/grid"
)

// VisitGraph records the transitions taken during a run
type VisitGraph struct {
	Nodes map[StateKey]*Node
}

func NewVisitGraph() *VisitGraph {
	return &VisitGraph{
		Nodes: make(map[StateKey]*Node),
	}
}

// Update adds the transition and returns true if the source state was new
func (v *VisitGraph) Update(from StateKey, action grid.Action, to StateKey) bool {
	new := false
	if _, ok := v.Nodes[from]; !ok {
		v.Nodes[from] = NewNode(from)
		new = true
	}
	if _, ok := v.Nodes[to]; !ok {
		v.Nodes[to] = NewNode(to)
	}
	v.Nodes[from].Visits += 1
	v.Nodes[from].AddNext(action, to)
	v.Nodes[to].AddPrev(action, from)
	return new
}

func (v *VisitGraph) GetVisits() map[StateKey]int {
	results := make(map[StateKey]int)
	for k, n := range v.Nodes {
		results[k] = n.Visits
	}
	return results
}

// Coverage returns the number of states left at least once and the
// number of distinct state action pairs taken
func (v *VisitGraph) Coverage() (int, int) {
	states, pairs := 0, 0
	for _, n := range v.Nodes {
		if n.Visits > 0 {
			states++
		}
		pairs += len(n.Next)
	}
	return states, pairs
}

type nodeRecord struct {
	State  StateKey            `json:"state"`
	Visits int                 `json:"visits"`
	Next   map[string][]string `json:"next"`
}

// Record writes the graph as JSON, nodes sorted by state
func (v *VisitGraph) Record(filePath string) error {
	keys := make([]StateKey, 0, len(v.Nodes))
	for k := range v.Nodes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	records := make([]nodeRecord, 0, len(keys))
	for _, k := range keys {
		n := v.Nodes[k]
		next := make(map[string][]string)
		for a, targets := range n.Next {
			for t := range targets {
				next[a.String()] = append(next[a.String()], t.String())
			}
			sort.Strings(next[a.String()])
		}
		records = append(records, nodeRecord{State: k, Visits: n.Visits, Next: next})
	}
	bs, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, bs, 0644)
}

type Node struct {
	Key    StateKey
	Visits int
	// Next, Prev: blocked moves lead back to the same state
	Next map[grid.Action]map[StateKey]bool
	Prev map[grid.Action]map[StateKey]bool
}

func NewNode(s StateKey) *Node {
	return &Node{
		Key:    s,
		Visits: 0,
		Next:   make(map[grid.Action]map[StateKey]bool),
		Prev:   make(map[grid.Action]map[StateKey]bool),
	}
}

func (n *Node) AddPrev(a grid.Action, prev StateKey) {
	if _, ok := n.Prev[a]; !ok {
		n.Prev[a] = make(map[StateKey]bool)
	}
	n.Prev[a][prev] = true
}

func (n *Node) AddNext(a grid.Action, next StateKey) {
	if _, ok := n.Next[a]; !ok {
		n.Next[a] = make(map[StateKey]bool)
	}
	n.Next[a][next] = true
}

// CoverageAnalyzer keeps the state coverage of the run
type CoverageAnalyzer struct {
	coverage []int
}

var _ Analyzer = &CoverageAnalyzer{}

func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

func (c *CoverageAnalyzer) Analyze(_ int, _ string, r *RunResult) {
	if r.Transitions == nil {
		c.coverage = nil
		return
	}
	states, pairs := r.Transitions.Coverage()
	c.coverage = []int{states, pairs}
}

func (c *CoverageAnalyzer) DataSet() DataSet {
	return c.coverage
}

func (c *CoverageAnalyzer) Reset() {
	c.coverage = nil
}

// CoverageComparator prints the coverage of every experiment
func CoverageComparator(w io.Writer) Comparator {
	return func(run int, names []string, ds []DataSet) {
		for i, name := range names {
			coverage, ok := ds[i].([]int)
			if !ok || len(coverage) != 2 {
				continue
			}
			fmt.Fprintf(w, "Coverage run:%d, experiment: %s, states: %d, state-action pairs: %d\n", run+1, name, coverage[0], coverage[1])
		}
	}
}
