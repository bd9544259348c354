package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Child is a spawned process that can be waited on once.
type Child interface {
	PID() int
	Wait() (Outcome, error)
}

// Spawner duplicates the current process. When exec is true the child
// replaces itself with the configured program.
type Spawner interface {
	Spawn(ctx context.Context, exec bool) (Child, error)
}

// ReexecSpawner duplicates the process by starting the current executable
// again in child mode, see HandleChild.
type ReexecSpawner struct {
	Program Program
}

func (s *ReexecSpawner) Spawn(ctx context.Context, execProgram bool) (Child, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to find current executable: %w", err)
	}

	mode := modeFork
	if execProgram {
		mode = modeExec
	}

	cmd := exec.CommandContext(ctx, self)
	cmd.Env = append(os.Environ(),
		childEnv+"="+mode,
		programEnv+"="+s.Program.Path,
	)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &osChild{cmd: cmd}, nil
}

type osChild struct {
	cmd *exec.Cmd
}

func (c *osChild) PID() int {
	return c.cmd.Process.Pid
}

func (c *osChild) Wait() (Outcome, error) {
	err := c.cmd.Wait()

	// A non-zero exit is reported as an error by Wait but is still an
	// outcome.
	state := c.cmd.ProcessState
	if state == nil {
		return Outcome{}, err
	}

	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok {
		return Outcome{}, fmt.Errorf("unexpected wait status type %T", state.Sys())
	}

	return outcomeFromStatus(ws), nil
}
