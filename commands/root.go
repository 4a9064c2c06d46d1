package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/keygrid-rl/explorer"
	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/policies"
	"github.com/zeu5/keygrid-rl/types"
	"k8s.io/klog/v2"
)

var (
	configFile    string
	seed          uint64
	episodes      int
	maxSteps      int
	rewardMode    string
	saveFile      string
	layoutFile    string
	obstacleCount int
	tracesFile    string
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          "keygrid-rl",
		Short:        "Tabular Q-learning on the fetch key grid task",
		SilenceUsage: true,
	}
	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file, flags override its values")
	rootCommand.PersistentFlags().Uint64Var(&seed, "seed", 0, "Random seed, 0 seeds from the clock")
	rootCommand.PersistentFlags().IntVarP(&episodes, "episodes", "e", 1000, "Number of episodes to run")
	rootCommand.PersistentFlags().IntVar(&maxSteps, "max-steps", 100, "Step limit of each episode")
	rootCommand.PersistentFlags().StringVarP(&rewardMode, "reward-mode", "m", string(types.Sparse), "Reward mode: Sparse, DistanceBased or Decaying")
	rootCommand.PersistentFlags().StringVarP(&saveFile, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().StringVar(&layoutFile, "layout", "", "Obstacle layout file to load")
	rootCommand.PersistentFlags().IntVar(&obstacleCount, "obstacles", 0, "Number of random obstacles when no layout file is given")
	rootCommand.PersistentFlags().StringVar(&tracesFile, "traces", "", "Record every episode trace to this file")

	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	rootCommand.PersistentFlags().AddGoFlagSet(klogFlags)

	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(CompareCommand())
	rootCommand.AddCommand(ServeCommand())
	rootCommand.AddCommand(ReplayCommand())
	rootCommand.AddCommand(ObstaclesCommand())
	rootCommand.AddCommand(explorer.ExploreCommand())
	return rootCommand
}

// loadConfig reads the configuration file if any and applies the flags
// the user set explicitly on top of it
func loadConfig(cmd *cobra.Command) (types.Config, error) {
	cfg := types.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = types.LoadConfig(configFile)
		if err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("episodes") || configFile == "" {
		cfg.Episodes = episodes
	}
	if flags.Changed("max-steps") || configFile == "" {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("reward-mode") || configFile == "" {
		mode, err := types.ParseRewardMode(rewardMode)
		if err != nil {
			return cfg, err
		}
		cfg.RewardMode = mode
	}
	if flags.Changed("traces") {
		cfg.TracesFile = tracesFile
	}
	return cfg, nil
}

// newLayout builds the obstacle layout of the configured grid with the
// start, key and goal protected
func newLayout(cfg types.Config) (*grid.Layout, error) {
	layout := grid.NewLayout(cfg.Grid, cfg.Start, cfg.Key, cfg.Goal)
	if layoutFile != "" {
		n, err := layout.Load(layoutFile)
		if err != nil {
			return nil, fmt.Errorf("loading layout %s: %w", layoutFile, err)
		}
		klog.InfoS("Loaded obstacle layout", "path", layoutFile, "obstacles", n)
		return layout, nil
	}
	if obstacleCount > 0 {
		placed := layout.Randomize(obstacleCount, policies.NewRand(cfg.Seed))
		if placed < obstacleCount {
			klog.Warningf("Placed %d of %d requested obstacles", placed, obstacleCount)
		}
	}
	return layout, nil
}

// withInterrupt runs f with a context that is cancelled on an interrupt
func withInterrupt(f func(context.Context) error) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	doneCh := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		cancel()
	}()

	err := f(ctx)
	close(doneCh)
	return err
}
