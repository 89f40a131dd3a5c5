package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flowcheck/internal/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, version.String())
		},
	}
}
