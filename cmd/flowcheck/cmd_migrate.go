package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/flowcheck/internal/db"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the report database schema",
	}

	open := func() (*db.DB, error) {
		if a.settings.DatabasePath == "" {
			return nil, fmt.Errorf("no report database configured, set --database or FLOWCHECK_DATABASE")
		}
		d, err := db.OpenDB(a.settings.DatabasePath)
		if err != nil {
			return nil, err
		}
		d.SetLogger(a.log)
		return d, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := open()
				if err != nil {
					return err
				}
				defer d.Close()
				return d.MigrateUp()
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := open()
				if err != nil {
					return err
				}
				defer d.Close()
				return d.MigrateDown()
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current and latest schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := open()
				if err != nil {
					return err
				}
				defer d.Close()
				version, dirty, err := d.MigrateVersion()
				if err != nil {
					return err
				}
				latest, err := db.LatestVersion()
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "current version: %d\nlatest version: %d\ndirty: %t\n", version, latest, dirty)
				return nil
			},
		},
	)
	return cmd
}
