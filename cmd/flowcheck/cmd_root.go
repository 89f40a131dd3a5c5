package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/banshee-data/flowcheck/internal/config"
	"github.com/banshee-data/flowcheck/internal/db"
	"github.com/banshee-data/flowcheck/internal/fsutil"
	"github.com/banshee-data/flowcheck/internal/monitoring"
	"github.com/banshee-data/flowcheck/internal/runner"
	"github.com/banshee-data/flowcheck/internal/storage/sqlite"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	out          io.Writer
	v            *viper.Viper
	settingsPath string
	settings     *config.Settings
	log          *zap.Logger
	fs           fsutil.FileSystem
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, v: config.NewViper(), fs: fsutil.OSFileSystem{}}

	rootCmd := &cobra.Command{
		Use:   "flowcheck",
		Short: "Reference oracle for pedestrian-flow measurement programs",
		Long: `flowcheck generates deterministic pedestrian trajectories, derives the
exact line counts, densities, velocities and distances a measurement
program must report for them, and checks the program's output files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.settingsPath, "settings", "", "settings file (yaml, json or toml)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("work-dir", "", "directory for synthesised trajectories and program output")
	flags.String("database", "", "sqlite report database; reports are not stored when empty")
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = a.v.BindPFlag(config.KeyWorkDir, flags.Lookup("work-dir"))
	_ = a.v.BindPFlag(config.KeyDatabase, flags.Lookup("database"))

	rootCmd.AddCommand(
		newSynthCmd(a),
		newReferenceCmd(a),
		newValidateCmd(a),
		newRunCmd(a),
		newCompareCmd(a),
		newHistoryCmd(a),
		newMigrateCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	s, err := config.LoadSettings(a.v, a.settingsPath)
	if err != nil {
		return err
	}
	a.settings = s
	a.log, err = monitoring.NewLogger(s.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func (a *app) runner(program runner.Program, store runner.ReportStore) *runner.Runner {
	return runner.New(runner.Options{
		FS:      a.fs,
		Program: program,
		Store:   store,
		WorkDir: a.settings.WorkDir,
		AbsTol:  a.settings.AbsTolerance,
		Log:     a.log,
	})
}

// openStore opens the report database. It returns a nil store and a no-op
// close function when no database is configured.
func (a *app) openStore() (*sqlite.ReportStore, func(), error) {
	if a.settings.DatabasePath == "" {
		return nil, func() {}, nil
	}
	d, err := a.openDB()
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewReportStore(d.DB, nil), func() { d.Close() }, nil
}

func (a *app) openDB() (*db.DB, error) {
	if a.settings.DatabasePath == "" {
		return nil, fmt.Errorf("no report database configured, set --database or FLOWCHECK_DATABASE")
	}
	d, err := db.OpenDB(a.settings.DatabasePath)
	if err != nil {
		return nil, err
	}
	d.SetLogger(a.log)
	if err := d.MigrateUp(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func loadScenarios(paths []string) ([]*config.Scenario, error) {
	out := make([]*config.Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := config.LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// applySeed sets the seed of a random scenario from the --seed flag, so
// an unseeded run can be checked with the seed synth printed.
func applySeed(cmd *cobra.Command, sc *config.Scenario, seed uint64) error {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	if sc.Trajectory.Random == nil {
		return fmt.Errorf("%s: --seed only applies to random scenarios", sc.Name)
	}
	sc.Trajectory.Random.Seed = &seed
	return nil
}
