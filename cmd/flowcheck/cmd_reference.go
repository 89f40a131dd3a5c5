package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flowcheck/internal/validate"
)

func newReferenceCmd(a *app) *cobra.Command {
	var (
		outDir string
		seed   uint64
	)
	cmd := &cobra.Command{
		Use:   "reference <scenario>",
		Short: "Write the exact output files a measurement program should produce",
		Long: `reference writes the oracle's output files for the scenario. The
trajectory and measurement config are left alone; run synth to write
them.`,
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
			p, err := a.runner(nil, nil).Derive(sc)
			if err != nil {
				return err
			}
			dir := p.Invocation.OutputDir
			if outDir != "" {
				dir = outDir
			}
			files, err := validate.WriteReference(a.fs, dir, sc.MethodName(), p.Reference, p.Params, p.Calculator)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(a.out, f)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", "", "output root (default: the scenario's output directory)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed of an unseeded random scenario")
	return cmd
}
