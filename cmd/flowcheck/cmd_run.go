package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flowcheck/internal/config"
	"github.com/banshee-data/flowcheck/internal/runner"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario>...",
		Short: "Run the measurement program on each scenario and validate its output",
		Long: `run synthesises each scenario, invokes the configured program and checks
what it wrote. The program command line may use the {trajectory},
{config} and {output} placeholders. Every scenario runs even when an
earlier one fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := loadScenarios(args)
			if err != nil {
				return err
			}
			store, closeStore, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			var rs runner.ReportStore
			if store != nil {
				rs = store
			}
			r := a.runner(runner.NewExecProgram(a.settings.Program, a.log), rs)

			failed := 0
			for _, sc := range scenarios {
				out, err := r.Run(cmd.Context(), sc)
				if out != nil && out.Report != nil {
					printReport(a.out, sc.Name, out.Report)
				}
				switch {
				case err == nil:
				case errors.Is(err, runner.ErrScenarioFailed):
					failed++
				default:
					return fmt.Errorf("%s: %w", sc.Name, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d scenarios", runner.ErrScenarioFailed, failed, len(scenarios))
			}
			return nil
		},
	}
	cmd.Flags().String("program", "", "measurement program command line")
	_ = a.v.BindPFlag(config.KeyProgram, cmd.Flags().Lookup("program"))
	return cmd
}
