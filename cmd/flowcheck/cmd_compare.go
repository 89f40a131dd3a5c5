package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flowcheck/internal/dircmp"
)

var errTreesDiffer = errors.New("output trees differ")

func newCompareCmd(a *app) *cobra.Command {
	var relTol float64
	cmd := &cobra.Command{
		Use:   "compare <reference-dir> <result-dir>",
		Short: "Compare two output trees file by file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("rel-tol") {
				relTol = a.settings.RelTolerance
			}
			ref, res := args[0], args[1]
			tree, err := dircmp.CompareTrees(a.fs, ref, res)
			if err != nil {
				return err
			}
			for _, p := range tree.LeftOnly {
				fmt.Fprintf(a.out, "only in %s: %s\n", ref, p)
			}
			for _, p := range tree.RightOnly {
				fmt.Fprintf(a.out, "only in %s: %s\n", res, p)
			}
			for _, p := range tree.Funny {
				fmt.Fprintf(a.out, "funny: %s\n", p)
			}

			diffs, err := dircmp.CompareContents(a.fs, ref, res, relTol)
			if err != nil {
				return err
			}
			differ := 0
			for _, d := range diffs {
				if d.Equal {
					continue
				}
				differ++
				fmt.Fprintf(a.out, "differs: %s (%s, relative norm %g)\n", d.File, d.Reason, d.RelNorm)
			}
			if !tree.Identical() || differ > 0 {
				return fmt.Errorf("%w: %d files differ", errTreesDiffer, differ)
			}
			fmt.Fprintf(a.out, "%d files match\n", len(diffs))
			return nil
		},
	}
	cmd.Flags().Float64Var(&relTol, "rel-tol", dircmp.DefaultRelTol, "relative L2 tolerance for non-integer columns")
	return cmd
}
