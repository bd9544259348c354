package runner

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/chaosinthecrd/tag/internal/tag/activity"
	"github.com/chaosinthecrd/tag/internal/tag/file"
	"github.com/chaosinthecrd/tag/internal/tag/identity"
	"github.com/chaosinthecrd/tag/internal/tag/playbook"
)

// DispatchError is returned when an activity of a run fails. Index is the
// 1-based position of the failing activity.
type DispatchError struct {
	Index int
	Kind  playbook.Kind
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("activity %d (%s) failed: %v", e.Index, e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// ProcessGenerator generates fork and exec activity.
type ProcessGenerator interface {
	Generate(ctx context.Context, id *identity.Context, exec bool) ([]activity.Record, error)
}

// NetworkGenerator generates a single network activity.
type NetworkGenerator interface {
	Generate(ctx context.Context, id *identity.Context) (activity.Record, error)
}

// FileGenerator generates a file lifecycle.
type FileGenerator func(id *identity.Context, directory, extension string, modify bool) ([]activity.Record, error)

// Options holds the generators a Runner dispatches to.
type Options struct {
	File    FileGenerator
	Process ProcessGenerator
	Network NetworkGenerator

	// Identity resolves the identity records are attributed to. Defaults to
	// identity.Resolve.
	Identity func() (*identity.Context, error)
}

// Runner runs activity specs one after another and collects their records.
type Runner struct {
	log      logr.Logger
	file     FileGenerator
	process  ProcessGenerator
	network  NetworkGenerator
	identity func() (*identity.Context, error)
}

func New(log logr.Logger, opts Options) *Runner {
	r := &Runner{
		log:      log.WithName("runner"),
		file:     opts.File,
		process:  opts.Process,
		network:  opts.Network,
		identity: opts.Identity,
	}

	if r.file == nil {
		r.file = file.Generate
	}
	if r.identity == nil {
		r.identity = identity.Resolve
	}

	return r
}

// Run executes specs in order. Records of activity i all precede those of
// activity i+1. The first failure aborts the run and no records are returned.
func (r *Runner) Run(ctx context.Context, specs []playbook.Spec) ([]activity.Record, error) {
	id, err := r.identity()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	r.log.Info("starting run", "activities", len(specs), "user", id.Username, "pid", id.PID)

	var records []activity.Record
	for i, spec := range specs {
		log := r.log.WithValues("activity", i+1, "type", spec.Kind())

		if err := ctx.Err(); err != nil {
			return nil, &DispatchError{Index: i + 1, Kind: spec.Kind(), Err: err}
		}

		log.V(1).Info("generating activity")
		out, err := r.dispatch(ctx, id, spec)
		if err != nil {
			return nil, &DispatchError{Index: i + 1, Kind: spec.Kind(), Err: err}
		}
		log.V(1).Info("generated activity", "records", len(out))

		records = append(records, out...)
	}

	r.log.Info("run complete", "records", len(records))

	return records, nil
}

func (r *Runner) dispatch(ctx context.Context, id *identity.Context, spec playbook.Spec) ([]activity.Record, error) {
	switch s := spec.(type) {
	case playbook.File:
		return r.file(id, s.Directory, s.Extension, s.Modify)

	case playbook.Process:
		if r.process == nil {
			return nil, fmt.Errorf("no process generator configured")
		}
		return r.process.Generate(ctx, id, s.Exec)

	case playbook.Network:
		if r.network == nil {
			return nil, fmt.Errorf("no network generator configured")
		}
		rec, err := r.network.Generate(ctx, id)
		if err != nil {
			return nil, err
		}
		return []activity.Record{rec}, nil

	default:
		return nil, fmt.Errorf("unsupported activity %T", spec)
	}
}
