package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flowcheck/internal/runner"
	"github.com/banshee-data/flowcheck/internal/validate"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		outDir string
		seed   uint64
	)
	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Check output files written by a measurement program",
		Long: `validate derives the scenario's reference values and checks the files
under <output>/Fundamental_Diagram/Method_<M>/. The output defaults to the
directory synth named in measurement.json. Nothing in the work directory
is modified. A scenario with an unseeded random trajectory needs the seed
synth reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := loadScenarios(args)
			if err != nil {
				return err
			}
			sc := scenarios[0]
			if err := applySeed(cmd, sc, seed); err != nil {
				return err
			}
			r := a.runner(nil, nil)
			p, err := r.Derive(sc)
			if err != nil {
				return err
			}
			if outDir != "" {
				p.Invocation.OutputDir = outDir
			}
			rep, err := r.Validate(p)
			if errors.Is(err, validate.ErrMissingOutputArtifact) {
				return fmt.Errorf("%w: %s: %w", runner.ErrScenarioFailed, sc.Name, err)
			}
			if err != nil {
				return err
			}
			printReport(a.out, sc.Name, rep)
			if !rep.Passed() {
				return fmt.Errorf("%w: %s: %d mismatches", runner.ErrScenarioFailed, sc.Name, len(rep.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output root written by the program (default: the scenario's output directory)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed of an unseeded random scenario")
	return cmd
}

func printReport(w io.Writer, name string, rep *validate.Report) {
	status := "PASS"
	if !rep.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s\t%s\tmethod %s\t%d files\t%d failures\n", status, name, rep.Method, len(rep.Files), len(rep.Failures))
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "  %v\n", f)
	}
}
