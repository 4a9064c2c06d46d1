package types

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
	"github.com/zeu5/keygrid-rl/metrics"
)

// RunParallel runs the comparison with the experiments of each run
// training concurrently. Every experiment owns its agent, the shared
// grid provider is only read. A status line per experiment is refreshed
// on out every frequency.
func (c *Comparison) RunParallel(ctx context.Context, out io.Writer, frequency time.Duration) error {
	if err := c.recordConfig(); err != nil {
		return fmt.Errorf("recording comparison config: %w", err)
	}

	longest := 0
	for _, e := range c.Experiments {
		if len(e.Name) > longest {
			longest = len(e.Name)
		}
	}
	outputs := make([]*ParallelOutput, len(c.Experiments))
	for i, e := range c.Experiments {
		outputs[i] = NewParallelOutput()
		e.agent.AddObserver(&experimentStatus{name: e.Name, pad: longest, output: outputs[i]})
	}

	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Fprintf(out, "Run %d\n", run+1)
		printer := NewTerminalPrinter(out, outputs, frequency)
		printer.Start(ctx)

		results := make([]*RunResult, len(c.Experiments))
		errs := make([]error, len(c.Experiments))
		wg := new(sync.WaitGroup)
		for i, e := range c.Experiments {
			wg.Add(1)
			go func(i int, e *Experiment) {
				defer wg.Done()
				result, err := e.Run(ctx)
				results[i] = result
				if err != nil {
					errs[i] = fmt.Errorf("experiment %s: %w", e.Name, err)
				}
			}(i, e)
		}
		wg.Wait()
		printer.Stop()

		if err := errors.Join(errs...); err != nil {
			return err
		}
		c.compare(run, results)
	}
	return nil
}

// experimentStatus keeps the status line of an experiment up to date
type experimentStatus struct {
	name   string
	pad    int
	output *ParallelOutput
	total  int
}

var _ EpisodeObserver = &experimentStatus{}
var _ RunObserver = &experimentStatus{}

func (s *experimentStatus) OnStep(StepEvent) {}

func (s *experimentStatus) OnKeyVisible(bool) {}

func (s *experimentStatus) OnRunStart(_ string, episodes int) {
	s.total = episodes
	s.output.Start(fmt.Sprintf("%-*s Pending", s.pad, s.name))
}

func (s *experimentStatus) OnEpisode(r metrics.EpisodeRecord) {
	// dropped while the printer reads the line
	s.output.TrySet(fmt.Sprintf("%-*s Episode %d/%d, reward %.2f, steps %d, eps %.3f",
		s.pad, s.name, r.Episode+1, s.total, r.Reward, r.Steps, r.Epsilon))
}

func (s *experimentStatus) OnRunEnd(r *RunResult) {
	s.output.Finish(fmt.Sprintf("%-*s Done, first success %s, success %.1f%%",
		s.pad, s.name, r.Summary.FirstSuccessString(), r.Summary.Final.SuccessRate*100))
}

// TERMINAL PRINTER

type TerminalPrinter struct {
	outputs   []*ParallelOutput
	frequency time.Duration

	writer  *uilive.Writer
	writers []io.Writer

	cancel context.CancelFunc
	done   chan struct{}
}

func NewTerminalPrinter(out io.Writer, outputs []*ParallelOutput, frequency time.Duration) *TerminalPrinter {
	if frequency <= 0 {
		frequency = time.Second
	}
	writer := uilive.New()
	writer.Out = out
	writers := make([]io.Writer, 0, len(outputs))
	for i := 0; i < len(outputs); i++ {
		if i == 0 {
			writers = append(writers, writer)
			continue
		}
		writers = append(writers, writer.Newline())
	}

	return &TerminalPrinter{
		outputs:   outputs,
		frequency: frequency,
		writer:    writer,
		writers:   writers,
		done:      make(chan struct{}),
	}
}

func (p *TerminalPrinter) Start(ctx context.Context) {
	printerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go func() {
		defer close(p.done)
		ticker := time.NewTicker(p.frequency)
		defer ticker.Stop()
		for {
			select {
			case <-printerCtx.Done():
				p.print()
				return
			case <-ticker.C:
				p.print()
			}
		}
	}()
}

// Stop prints the final state of every output and waits for the printer
func (p *TerminalPrinter) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *TerminalPrinter) print() {
	for i, output := range p.outputs {
		fmt.Fprintln(p.writers[i], output.Get())
	}
	p.writer.Flush()
}

// PARALLEL OUTPUT

// used to update and print experiment outputs
type ParallelOutput struct {
	mu        sync.Mutex
	printable string
	running   bool
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{}
}

func (p *ParallelOutput) Start(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
	p.running = true
}

func (p *ParallelOutput) Finish(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
	p.running = false
}

// Try to set the output string (non-blocking). Updates after Finish are
// dropped so the final line stays.
func (p *ParallelOutput) TrySet(s string) bool {
	if !p.mu.TryLock() {
		return false
	}
	defer p.mu.Unlock()
	if !p.running {
		return false
	}
	p.printable = s
	return true
}

func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}

func (p *ParallelOutput) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
