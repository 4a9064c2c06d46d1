package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zeu5/keygrid-rl/export"
	"github.com/zeu5/keygrid-rl/policies"
	"github.com/zeu5/keygrid-rl/render"
	"github.com/zeu5/keygrid-rl/types"
	"github.com/zeu5/keygrid-rl/util"
	"k8s.io/klog/v2"
)

type trainOptions struct {
	render      bool
	renderEvery int
	noColor     bool
	progress    bool
	plots       bool
	redisAddr   string
	redisPrefix string
	sqlitePath  string
	policyFile  string
	graphFile   string
	cpuprofile  string
	memprofile  string
}

// Train runs one training session and exports its results
func Train(ctx context.Context, cfg types.Config, provider types.GridProvider, o trainOptions, out io.Writer) (*types.RunResult, error) {
	observers := make([]types.Observer, 0)
	var term *render.Terminal
	if o.render {
		term = render.NewTerminal(out, cfg, provider, !o.noColor)
		term.Every = o.renderEvery
		observers = append(observers, term)
	}
	if o.progress {
		observers = append(observers, render.NewProgress(out, cfg.ReportEvery, cfg.SummaryWindow))
	}

	agent, err := policies.NewAgent(cfg, provider, observers...)
	if err != nil {
		return nil, err
	}
	result, runErr := agent.Run(ctx)
	if result == nil {
		return nil, runErr
	}
	if runErr != nil {
		klog.InfoS("Exporting partial results", "episodes", result.History.Len(), "reason", runErr)
	}

	fmt.Fprintln(out, result.Summary.Text())
	if term != nil {
		fmt.Fprintf(out, "Policy without the key:\n%s\nPolicy with the key:\n%s\n",
			term.Policy(agent.Table(), false), term.Policy(agent.Table(), true))
	}

	if o.policyFile != "" {
		if err := agent.Table().Record(o.policyFile); err != nil {
			klog.ErrorS(err, "Failed to record the q table", "path", o.policyFile)
		}
	}

	if o.graphFile != "" {
		if err := result.Transitions.Record(o.graphFile); err != nil {
			klog.ErrorS(err, "Failed to record the visit graph", "path", o.graphFile)
		}
	}

	sinks, closeSinks, err := buildSinks(o)
	if err != nil {
		return result, errors.Join(runErr, err)
	}
	defer closeSinks()
	// the run may have been interrupted, the partial results are still exported
	if err := sinks.Export(context.WithoutCancel(ctx), export.NewReport(result)); err != nil {
		klog.ErrorS(err, "Failed to export results", "run", result.RunID)
		return result, errors.Join(runErr, err)
	}
	return result, runErr
}

func buildSinks(o trainOptions) (export.MultiSink, func(), error) {
	sinks := export.MultiSink{export.NewFileSink(saveFile, o.plots)}
	closers := make([]io.Closer, 0)
	if o.redisAddr != "" {
		r := export.NewRedisSink(o.redisAddr, o.redisPrefix)
		sinks = append(sinks, r)
		closers = append(closers, r)
	}
	if o.sqlitePath != "" {
		s, err := export.OpenSQLite(o.sqlitePath)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, nil, err
		}
		sinks = append(sinks, s)
		closers = append(closers, s)
	}
	return sinks, func() {
		for _, c := range closers {
			c.Close()
		}
	}, nil
}

func TrainCommand() *cobra.Command {
	o := trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent and export the episode metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			layout, err := newLayout(cfg)
			if err != nil {
				return err
			}
			if err := util.EnsureDir(saveFile); err != nil {
				return err
			}
			stop, err := startProfiling(saveFile, o.cpuprofile, o.memprofile)
			if err != nil {
				return err
			}
			defer stop()

			return withInterrupt(func(ctx context.Context) error {
				_, err := Train(ctx, cfg, layout, o, cmd.OutOrStdout())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&o.render, "render", false, "Render the grid after every step")
	cmd.Flags().IntVar(&o.renderEvery, "render-every", 0, "Render one episode out of every n")
	cmd.Flags().BoolVar(&o.noColor, "no-color", false, "Disable colours in the rendered grid")
	cmd.Flags().BoolVar(&o.progress, "progress", false, "Show live training progress")
	cmd.Flags().BoolVar(&o.plots, "plots", true, "Save the learning curve and visit plots")
	cmd.Flags().StringVar(&o.redisAddr, "redis", "", "Redis address to export the results to")
	cmd.Flags().StringVar(&o.redisPrefix, "redis-prefix", "keygrid", "Prefix of the redis keys")
	cmd.Flags().StringVar(&o.sqlitePath, "sqlite", "", "SQLite database to export the results to")
	cmd.Flags().StringVar(&o.policyFile, "policy", "", "Record the learned q table to this file")
	cmd.Flags().StringVar(&o.graphFile, "visit-graph", "", "Record the graph of visited transitions to this file")
	cmd.Flags().StringVar(&o.cpuprofile, "cpuprofile", "", "Write a cpu profile to this file in the save folder")
	cmd.Flags().StringVar(&o.memprofile, "memprofile", "", "Write a memory profile to this file in the save folder")
	return cmd
}
