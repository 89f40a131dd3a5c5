package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSynthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "synth <scenario>...",
		Short: "Write the trajectory and measurement config of each scenario",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := loadScenarios(args)
			if err != nil {
				return err
			}
			r := a.runner(nil, nil)
			for _, sc := range scenarios {
				p, err := r.Prepare(sc)
				if err != nil {
					return fmt.Errorf("%s: %w", sc.Name, err)
				}
				res := p.Synthesis
				fmt.Fprintf(a.out, "%s\t%s\t%d pedestrians\t%d records\tframes %d-%d\n",
					sc.Name, p.Invocation.TrajectoryPath, len(res.Pedestrians), res.Records, res.FirstFrame, res.LastFrame)
				if sc.Trajectory.Random != nil {
					fmt.Fprintf(a.out, "%s\tseed %d\n", sc.Name, res.Seed)
				}
			}
			return nil
		},
	}
}
