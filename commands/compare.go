package commands

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/keygrid-rl/policies"
	"github.com/zeu5/keygrid-rl/types"
)

// Compare trains one agent per reward mode on the same layout and
// compares the learning curves
func Compare(ctx context.Context, cfg types.Config, provider types.GridProvider, runs, window int, parallel bool, out io.Writer) (*types.Comparison, error) {
	c := types.NewComparison(&types.ComparisonConfig{
		Runs:       runs,
		RecordPath: saveFile,
	})
	c.AddAnalysis("Reward", types.RewardAnalyzer(window), types.SeriesPlotter(saveFile, "reward", "Average reward"))
	c.AddAnalysis("Success", types.SuccessAnalyzer(window), types.SeriesPlotter(saveFile, "success", "Success rate"))
	c.AddAnalysis("Steps", types.StepsAnalyzer(window), types.SeriesPlotter(saveFile, "steps", "Average steps"))
	c.AddAnalysis("Summary", types.NewSummaryAnalyzer(), types.SummaryTable(out))
	c.AddAnalysis("Visits", types.NewVisitAnalyzer(), types.VisitHeatMaps(saveFile))
	c.AddAnalysis("Coverage", types.NewCoverageAnalyzer(), types.CoverageComparator(out))

	for _, mode := range types.RewardModes {
		modeCfg := cfg
		modeCfg.RewardMode = mode
		agent, err := policies.NewAgent(modeCfg, provider)
		if err != nil {
			return nil, err
		}
		c.AddExperiment(types.NewExperiment(string(mode), agent))
	}
	if parallel {
		return c, c.RunParallel(ctx, out, time.Second)
	}
	return c, c.Run(ctx, out)
}

func CompareCommand() *cobra.Command {
	var runs int
	var window int
	var parallel bool
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the three reward modes on the same grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			layout, err := newLayout(cfg)
			if err != nil {
				return err
			}
			return withInterrupt(func(ctx context.Context) error {
				_, err := Compare(ctx, cfg, layout, runs, window, parallel, cmd.OutOrStdout())
				return err
			})
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 1, "Number of comparison runs")
	cmd.Flags().IntVar(&window, "window", 50, "Rolling window of the compared curves")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Train the reward modes concurrently")
	return cmd
}
