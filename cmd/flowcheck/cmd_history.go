package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flowcheck/internal/storage/sqlite"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit    int
		failures string
		remove   string
	)
	cmd := &cobra.Command{
		Use:   "history [scenario]",
		Short: "List stored validation runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.openDB()
			if err != nil {
				return err
			}
			defer d.Close()
			store := sqlite.NewReportStore(d.DB, nil)

			switch {
			case remove != "":
				if err := store.Delete(remove); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "deleted %s\n", remove)
				return nil
			case failures != "":
				run, err := store.Get(failures)
				if err != nil {
					return err
				}
				printRun(a, run)
				fails, err := store.Failures(failures)
				if err != nil {
					return err
				}
				for _, f := range fails {
					fmt.Fprintf(a.out, "  %s %s row %d col %d: observed %s, expected %s %s\n",
						f.Kind, f.File, f.Row, f.Col, f.Observed, f.Expected, f.Message)
				}
				return nil
			}

			var runs []*sqlite.Run
			if len(args) == 1 {
				runs, err = store.ListByScenario(args[0])
				if len(runs) > limit {
					runs = runs[:limit]
				}
			} else {
				runs, err = store.ListRecent(limit)
			}
			if err != nil {
				return err
			}
			for _, r := range runs {
				printRun(a, r)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&failures, "failures", "", "show the failures of one run id")
	cmd.Flags().StringVar(&remove, "delete", "", "delete one run id")
	return cmd
}

func printRun(a *app, r *sqlite.Run) {
	status := "PASS"
	if !r.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\t%d failures\t%dms\t%s\n",
		r.RunID, time.Unix(0, r.CreatedAt).UTC().Format(time.RFC3339), status, r.Scenario, r.FailureCount, r.DurationMS, r.Method)
}
