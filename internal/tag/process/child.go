package process

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	childEnv   = "TAG_ACTIVITY_CHILD"
	programEnv = "TAG_ACTIVITY_PROGRAM"

	modeFork = "fork"
	modeExec = "exec"

	// execFailedStatus is the exit status of a child whose exec failed.
	execFailedStatus = 127
)

// HandleChild turns the current process into a spawned activity child when it
// was started as one, and never returns in that case. It must be called
// before anything else in main, and in TestMain of packages that spawn
// children.
func HandleChild() {
	mode, ok := os.LookupEnv(childEnv)
	if !ok {
		return
	}

	if mode != modeExec {
		os.Exit(0)
	}

	program := Program{Path: os.Getenv(programEnv)}
	err := unix.Exec(program.Path, program.Argv(), childEnviron(os.Environ()))
	fmt.Fprintf(os.Stderr, "failed to exec %q: %v\n", program.Path, err)
	os.Exit(execFailedStatus)
}

// childEnviron strips the child markers so the executed program sees the
// environment of the parent.
func childEnviron(environ []string) []string {
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		if strings.HasPrefix(kv, childEnv+"=") || strings.HasPrefix(kv, programEnv+"=") {
			continue
		}
		out = append(out, kv)
	}
	return out
}
