package types

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
)

// Experiment is a named agent taking part in a comparison
type Experiment struct {
	Name  string
	agent *Agent
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, agent *Agent) *Experiment {
	return &Experiment{
		Name:  name,
		agent: agent,
	}
}

func (e *Experiment) Agent() *Agent {
	return e.agent
}

// Run the experiment once, the agent rebuilds its table on every run
func (e *Experiment) Run(ctx context.Context) (*RunResult, error) {
	return e.agent.Run(ctx)
}

// Generic Dataset that contains information after processing the runs
type DataSet interface{}

// Analyzer compresses the result of a run to a DataSet
type Analyzer interface {
	// run, experiment name, result
	Analyze(int, string, *RunResult)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// Comparator differentiates between different datasets with associated names
// run, experiment names, datasets
type Comparator func(int, []string, []DataSet)

func NoopComparator() Comparator {
	return func(int, []string, []DataSet) {}
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs       int    // number of runs
	RecordPath string // path to store the results
}

// Comparison contains the different experiments to compare.
// The results of each run are analyzed and the datasets compared.
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
	results     map[string][]*RunResult
}

// NewComparison creates a comparison instance
func NewComparison(config *ComparisonConfig) *Comparison {
	if config.Runs <= 0 {
		config.Runs = 1
	}
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
		results:     make(map[string][]*RunResult),
	}
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// Results returns the run results of the experiment in run order
func (c *Comparison) Results(name string) []*RunResult {
	return c.results[name]
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() error {
	if c.cConfig.RecordPath == "" {
		return nil
	}
	if err := os.MkdirAll(c.cConfig.RecordPath, 0755); err != nil {
		return err
	}

	out := make(map[string]interface{})
	out["runs"] = c.cConfig.Runs
	experiments := make(map[string]interface{})
	for _, e := range c.Experiments {
		experiments[e.Name] = e.agent.Config()
	}
	out["experiments"] = experiments
	analyzers := make([]string, 0, len(c.analyzers))
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	sort.Strings(analyzers)
	out["analyzers"] = analyzers

	bs, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(c.cConfig.RecordPath, "comparison_config.json"), bs, 0644)
}

// Run the comparison, experiments run one after the other
func (c *Comparison) Run(ctx context.Context, out io.Writer) error {
	if err := c.recordConfig(); err != nil {
		return fmt.Errorf("recording comparison config: %w", err)
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Fprintf(out, "Run %d\n", run+1)
		results := make([]*RunResult, len(c.Experiments))
		for i, e := range c.Experiments {
			result, err := e.Run(ctx)
			if err != nil {
				return fmt.Errorf("experiment %s: %w", e.Name, err)
			}
			fmt.Fprintf(out, "Exp:%s, Episodes:%d, FirstSuccess:%s, Success:%5.1f%%\n",
				e.Name, result.History.Len(), result.Summary.FirstSuccessString(), result.Summary.Final.SuccessRate*100)
			results[i] = result
		}
		c.compare(run, results)
	}
	return nil
}

// compare feeds the results of one run, in experiment order, to the
// analyzers and hands the datasets to the comparators
func (c *Comparison) compare(run int, results []*RunResult) {
	datasets := make(map[string][]DataSet)
	for name := range c.analyzers {
		datasets[name] = make([]DataSet, len(c.Experiments))
	}
	names := make([]string, len(c.Experiments))
	for i, e := range c.Experiments {
		c.results[e.Name] = append(c.results[e.Name], results[i])
		for name, a := range c.analyzers {
			a.Analyze(run, e.Name, results[i])
			datasets[name][i] = a.DataSet()
			a.Reset()
		}
		names[i] = e.Name
	}
	for name, comp := range c.comparators {
		comp(run, names, datasets[name])
	}
}
