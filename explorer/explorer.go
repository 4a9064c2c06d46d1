package explorer

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeu5/keygrid-rl/types"
	"golang.org/x/exp/rand"
)

type Explorer struct {
	PolicyFile string
	TracesFile string

	Table  *types.QTable
	Traces []*types.Trace
}

// Create an explorer of a recorded q table and the traces of its run.
// The policy file is optional.
func NewExplorer(policyFile string, tracesFile string) (*Explorer, error) {
	e := &Explorer{
		PolicyFile: policyFile,
		TracesFile: tracesFile,
		Table:      types.NewQTable(rand.New(rand.NewSource(1))),
		Traces:     make([]*types.Trace, 0),
	}

	if policyFile != "" {
		if err := e.Table.Read(policyFile); err != nil {
			return nil, err
		}
	}
	traces, err := ReadTraces(tracesFile)
	if err != nil {
		return nil, err
	}
	e.Traces = traces
	return e, nil
}

// ReadTraces parses a file with one JSON encoded episode trace per line
func ReadTraces(path string) ([]*types.Trace, error) {
	traces := make([]*types.Trace, 0)
	file, err := os.Open(path)
	if err != nil {
		return traces, fmt.Errorf("error reading file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	maxTraceSize := 5 * 1024 * 1024
	scanner.Buffer(make([]byte, maxTraceSize), maxTraceSize)
	for scanner.Scan() {
		bs := scanner.Bytes()
		if len(bs) == 0 {
			continue
		}
		if len(bs) >= maxTraceSize {
			return traces, errors.New("error trace too big")
		}
		t := types.NewTrace(0)
		if err := json.Unmarshal(bs, t); err != nil {
			return traces, fmt.Errorf("error reading file contents: %w", err)
		}
		for i := 1; i < t.Len(); i++ {
			if t.Steps[i].State != t.Steps[i-1].NextState {
				return traces, fmt.Errorf("trace of episode %d is not contiguous at step %d", t.Episode, i)
			}
		}
		traces = append(traces, t)
	}
	if err := scanner.Err(); err != nil {
		return traces, fmt.Errorf("failed to read traces: %w", err)
	}
	return traces, nil
}

// Find returns the trace of the episode
func (e *Explorer) Find(episode int) (*types.Trace, bool) {
	for _, t := range e.Traces {
		if t.Episode == episode {
			return t, true
		}
	}
	return nil, false
}

// Replay feeds a recorded trace to the observer as if the episode was
// running, the observer sees the same notifications a live run produces
func Replay(trace *types.Trace, o types.Observer) {
	o.OnKeyVisible(true)
	for i, s := range trace.Steps {
		if !s.State.HasKey && s.NextState.HasKey {
			o.OnKeyVisible(false)
		}
		o.OnStep(types.StepEvent{
			Episode:  trace.Episode,
			Step:     i + 1,
			Action:   s.Action,
			Previous: s.State.Position,
			Position: s.NextState.Position,
			HasKey:   s.NextState.HasKey,
			Reward:   s.Reward,
		})
	}
}

// Example invocation - ./keygrid-rl explore [policy_output(.jsonl)] [trace_output(.jsonl)]
func ExploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:  "explore [policy_output] [trace_output]",
		Long: "Explore the choices of a recorded q-table and the recorded traces",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := NewExplorer(args[0], args[1])
			if err != nil {
				return err
			}

			exp.Interact(cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}
}
