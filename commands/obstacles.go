package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/policies"
	"github.com/zeu5/keygrid-rl/render"
)

func ObstaclesCommand() *cobra.Command {
	var count int
	var check bool
	cmd := &cobra.Command{
		Use:   "obstacles [output]",
		Short: "Generate a random obstacle layout and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			layout := grid.NewLayout(cfg.Grid, cfg.Start, cfg.Key, cfg.Goal)
			placed := layout.Randomize(count, policies.NewRand(cfg.Seed))

			obstacles := grid.NewObstacleSet(layout.Obstacles()...)
			toKey := grid.ShortestPathLength(cfg.Start, cfg.Key, cfg.Grid, obstacles)
			toGoal := grid.ShortestPathLength(cfg.Key, cfg.Goal, cfg.Grid, obstacles)
			if check && (toKey == grid.Unreachable || toGoal == grid.Unreachable) {
				return fmt.Errorf("generated layout cuts the key or the goal off, try another seed")
			}

			if err := layout.Save(args[0]); err != nil {
				return err
			}
			term := render.NewTerminal(cmd.OutOrStdout(), cfg, layout, false)
			fmt.Fprintf(cmd.OutOrStdout(), "Placed %d obstacles, saved to %s\n", placed, args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Shortest path to the key: %d, from the key to the goal: %d\n", toKey, toGoal)
			fmt.Fprint(cmd.OutOrStdout(), term.Frame(cfg.Start, false))
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 5, "Number of obstacles to place")
	cmd.Flags().BoolVar(&check, "check", true, "Fail when the key or the goal is unreachable")
	return cmd
}
