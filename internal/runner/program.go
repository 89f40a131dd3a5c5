package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/banshee-data/flowcheck/internal/monitoring"
)

// Invocation locates the files handed to a measurement program.
type Invocation struct {
	TrajectoryPath string
	ConfigPath     string
	OutputDir      string
}

// Program is a pedestrian-flow measurement program under test.
type Program interface {
	Run(ctx context.Context, inv Invocation) error
}

// ErrNoCommand is returned by ExecProgram when no command line is set.
var ErrNoCommand = errors.New("no measurement program configured")

// ExecProgram runs an external command. Arguments may contain the
// {trajectory}, {config} and {output} placeholders.
type ExecProgram struct {
	Args []string
	Dir  string
	log  *zap.Logger
}

// NewExecProgram splits command on white space. A nil logger disables
// logging.
func NewExecProgram(command string, log *zap.Logger) *ExecProgram {
	return NewExecProgramArgs(strings.Fields(command), log)
}

// NewExecProgramArgs runs args[0] with the remaining arguments.
func NewExecProgramArgs(args []string, log *zap.Logger) *ExecProgram {
	return &ExecProgram{Args: args, log: monitoring.OrNop(log)}
}

func expandArgs(args []string, inv Invocation) []string {
	r := strings.NewReplacer(
		"{trajectory}", inv.TrajectoryPath,
		"{config}", inv.ConfigPath,
		"{output}", inv.OutputDir,
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

// Run executes the command and waits for it. A non-zero exit is an error
// carrying the tail of stderr.
func (p *ExecProgram) Run(ctx context.Context, inv Invocation) error {
	if len(p.Args) == 0 {
		return ErrNoCommand
	}
	args := expandArgs(p.Args, inv)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = p.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.log.Info("running measurement program", zap.Strings("args", args))
	err := cmd.Run()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if stdout.Len() > 0 {
		p.log.Debug("measurement program output", zap.String("stdout", tail(stdout.String(), 4096)))
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %s", args[0], err, tail(strings.TrimSpace(stderr.String()), 1024))
	}
	return nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx context.Context, inv Invocation) error

func (f ProgramFunc) Run(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}
