package process

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// OutcomeKind classifies how a child process terminated.
type OutcomeKind int

const (
	ExitedZero OutcomeKind = iota
	ExitedNonZero
	Signaled
)

// Outcome is the typed result of waiting for a child.
type Outcome struct {
	Kind   OutcomeKind
	Code   int
	Signal syscall.Signal
}

func (o Outcome) String() string {
	switch o.Kind {
	case ExitedZero:
		return "exited with status 0"
	case ExitedNonZero:
		return fmt.Sprintf("exited with status %d", o.Code)
	case Signaled:
		if name := unix.SignalName(o.Signal); name != "" {
			return "terminated by " + name
		}
		return fmt.Sprintf("terminated by signal %d", int(o.Signal))
	}
	return "unknown outcome"
}

func outcomeFromStatus(ws syscall.WaitStatus) Outcome {
	switch {
	case ws.Signaled():
		return Outcome{Kind: Signaled, Signal: ws.Signal()}
	case ws.Exited() && ws.ExitStatus() == 0:
		return Outcome{Kind: ExitedZero}
	default:
		return Outcome{Kind: ExitedNonZero, Code: ws.ExitStatus()}
	}
}
