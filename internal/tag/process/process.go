package process

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/chaosinthecrd/tag/internal/tag/activity"
	"github.com/chaosinthecrd/tag/internal/tag/identity"
)

var (
	ErrFork      = errors.New("failed to fork process")
	ErrWait      = errors.New("failed to wait for child process")
	ErrChildExit = errors.New("executed child did not exit successfully")
	ErrIdentity  = errors.New("no identity to attribute process activity to")
)

// DefaultProgram is the program executed by the child. It has no network or
// filesystem effects.
var DefaultProgram = Program{Path: "/bin/true"}

// Program is an external program a child replaces itself with.
type Program struct {
	Path string
}

// Argv is the fixed argument list the program is executed with.
func (p Program) Argv() []string {
	return []string{p.Name()}
}

// Name is the process name the program runs under.
func (p Program) Name() string {
	return filepath.Base(p.Path)
}

// Generator generates fork and exec activity.
type Generator struct {
	log     logr.Logger
	program Program
	spawner Spawner
	now     func() time.Time
}

type Option func(*Generator)

// WithProgram sets the program executed by the child.
func WithProgram(p Program) Option {
	return func(g *Generator) {
		g.program = p
		if s, ok := g.spawner.(*ReexecSpawner); ok {
			s.Program = p
		}
	}
}

// WithSpawner replaces the OS spawner.
func WithSpawner(s Spawner) Option {
	return func(g *Generator) {
		g.spawner = s
	}
}

func NewGenerator(log logr.Logger, opts ...Option) *Generator {
	g := &Generator{
		log:     log.WithName("process"),
		program: DefaultProgram,
		spawner: &ReexecSpawner{Program: DefaultProgram},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate forks the current process, optionally executing the program in the
// child, and waits for the child to terminate.
func (g *Generator) Generate(ctx context.Context, id *identity.Context, exec bool) ([]activity.Record, error) {
	if id == nil {
		return nil, ErrIdentity
	}

	child, err := g.spawner.Spawn(ctx, exec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFork, err)
	}
	forkTime := g.now()
	g.log.V(2).Info("spawned child", "pid", child.PID(), "exec", exec)

	outcome, err := child.Wait()
	if err != nil {
		return nil, fmt.Errorf("%w %d: %w", ErrWait, child.PID(), err)
	}
	waitTime := g.now()
	g.log.V(2).Info("child terminated", "pid", child.PID(), "outcome", outcome.String())

	return records(id, g.program, exec, child.PID(), forkTime, outcome, waitTime)
}

// records maps the result of a spawn and wait to activity records.
func records(id *identity.Context, program Program, exec bool, childPID int, forkTime time.Time, outcome Outcome, waitTime time.Time) ([]activity.Record, error) {
	if exec && outcome.Kind != ExitedZero {
		return nil, fmt.Errorf("%w: child %d running %s %s", ErrChildExit, childPID, program.Path, outcome)
	}

	out := []activity.Record{
		activity.New(id, forkTime, activity.ProcessForked{ChildPID: childPID}),
	}

	if exec {
		out = append(out, activity.Record{
			Time:        waitTime,
			Username:    id.Username,
			PID:         childPID,
			CommandLine: strings.Join(program.Argv(), " "),
			ProcessName: program.Name(),
			Activity:    activity.ProcessExecuted{ParentPID: id.PID},
		})
	}

	return out, nil
}
