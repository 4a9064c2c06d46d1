package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zeu5/keygrid-rl/policies"
	"github.com/zeu5/keygrid-rl/server"
)

func ServeCommand() *cobra.Command {
	var addr string
	var autostart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the training status and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			layout, err := newLayout(cfg)
			if err != nil {
				return err
			}
			agent, err := policies.NewAgent(cfg, layout)
			if err != nil {
				return err
			}
			return withInterrupt(func(ctx context.Context) error {
				s := server.NewServer(ctx, addr, agent)
				if autostart {
					if err := s.StartRun(); err != nil {
						return err
					}
				}
				return s.Start()
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().BoolVar(&autostart, "start", false, "Start a training run right away")
	return cmd
}
