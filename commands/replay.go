package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/keygrid-rl/explorer"
	"github.com/zeu5/keygrid-rl/render"
)

func ReplayCommand() *cobra.Command {
	var episode int
	var delay time.Duration
	var noColor bool
	cmd := &cobra.Command{
		Use:   "replay [trace_output]",
		Short: "Replay recorded episode traces on the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			layout, err := newLayout(cfg)
			if err != nil {
				return err
			}
			traces, err := explorer.ReadTraces(args[0])
			if err != nil {
				return err
			}

			term := render.NewTerminal(cmd.OutOrStdout(), cfg, layout, !noColor)
			term.Delay = delay
			replayed := 0
			for _, t := range traces {
				if episode >= 0 && t.Episode != episode {
					continue
				}
				explorer.Replay(t, term)
				fmt.Fprintln(cmd.OutOrStdout(), explorer.Summarize(t))
				replayed++
			}
			if replayed == 0 {
				return fmt.Errorf("no trace for episode %d in %s", episode, args[0])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&episode, "episode", -1, "Episode to replay, all of them when negative")
	cmd.Flags().DurationVar(&delay, "delay", 200*time.Millisecond, "Pause after each step")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colours")
	return cmd
}
