package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/chaosinthecrd/tag/internal/tag/app/options"
	"github.com/chaosinthecrd/tag/internal/tag/attestation"
	"github.com/chaosinthecrd/tag/internal/tag/network"
	"github.com/chaosinthecrd/tag/internal/tag/playbook"
	"github.com/chaosinthecrd/tag/internal/tag/process"
	"github.com/chaosinthecrd/tag/internal/tag/runner"
	"github.com/chaosinthecrd/tag/internal/tag/sink"
	"github.com/chaosinthecrd/tag/internal/tag/timeline"
)

var (
	hostname    = os.Hostname
	createStore = timeline.CreateStore
)

// run generates specs and persists the outputs. Every output is staged
// before any is committed, and committed outputs are rolled back if a later
// one fails, so a failed run leaves nothing behind.
func run(ctx context.Context, fs afero.Fs, opts *options.Options, specs []playbook.Spec) error {
	log := opts.Logr.WithName("main")

	host, err := hostname()
	if err != nil {
		return fmt.Errorf("failed to resolve hostname: %w", err)
	}
	runID := uuid.New().String()
	log = log.WithValues("run_id", runID)

	r := runner.New(opts.Logr, runner.Options{
		Process: process.NewGenerator(opts.Logr),
		Network: network.NewGenerator(opts.Logr, opts.Network.Target),
	})

	started := time.Now().UTC()
	records, err := r.Run(ctx, specs)
	if err != nil {
		return err
	}
	finished := time.Now().UTC()

	var out outputs
	defer out.close()

	s := sink.New(opts.Logr, fs)
	logFile, err := s.StageLog(opts.Output.LogPath, records)
	if err != nil {
		out.rollback(log)
		return err
	}
	out.files = append(out.files, logFile)

	if len(opts.Output.AttestationPath) > 0 {
		statement, err := attest(ctx, opts, logFile.Data, attestation.Predicate{
			RunID:      runID,
			Host:       host,
			Started:    started,
			Finished:   finished,
			Activities: attestation.Activities(specs),
			Records:    records,
		})
		if err != nil {
			out.rollback(log)
			return err
		}

		attestationFile, err := s.Stage(opts.Output.AttestationPath, statement)
		if err != nil {
			out.rollback(log)
			return err
		}
		out.files = append(out.files, attestationFile)
	}

	if driver, dsn, ok := opts.TimelineDriver(); ok {
		if err := out.stageTimeline(driver, dsn, timeline.FromRecords(records, runID, host)); err != nil {
			out.rollback(log)
			return err
		}
	}

	if err := out.commit(); err != nil {
		out.rollback(log)
		return err
	}

	log.Info("run outputs written", "records", len(records), "log", opts.Output.LogPath,
		"attestation", opts.Output.AttestationPath, "signed", len(opts.Output.SigningKeyPath) > 0)

	return nil
}

// outputs are the staged results of a run.
type outputs struct {
	files   []*sink.Staged
	store   timeline.Store
	pending timeline.Pending
}

func (o *outputs) stageTimeline(driver, dsn string, events []*timeline.Event) error {
	store, err := createStore(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open timeline: %w", err)
	}
	o.store = store

	pending, err := store.StageEvents(events)
	if err != nil {
		return fmt.Errorf("failed to export timeline: %w", err)
	}
	o.pending = pending

	return nil
}

// commit moves files into place in order, then commits the timeline.
func (o *outputs) commit() error {
	for _, f := range o.files {
		if err := f.Commit(); err != nil {
			return err
		}
	}

	if o.pending != nil {
		if err := o.pending.Commit(); err != nil {
			return fmt.Errorf("failed to export timeline: %w", err)
		}
	}

	return nil
}

func (o *outputs) rollback(log logr.Logger) {
	if o.pending != nil {
		if err := o.pending.Rollback(); err != nil {
			log.Error(err, "failed to roll back timeline")
		}
	}

	for _, f := range o.files {
		if err := f.Discard(); err != nil {
			log.Error(err, "failed to remove output", "path", f.Path())
		}
	}
}

func (o *outputs) close() {
	if o.store != nil {
		o.store.Close()
	}
}

func attest(ctx context.Context, opts *options.Options, logData []byte, predicate attestation.Predicate) ([]byte, error) {
	statement := attestation.NewStatement(opts.Output.LogPath, logData, predicate)

	if len(opts.Output.SigningKeyPath) == 0 {
		out, err := attestation.Encode(statement)
		if err != nil {
			return nil, fmt.Errorf("failed to encode attestation: %w", err)
		}
		return out, nil
	}

	out, err := attestation.Sign(ctx, statement, opts.Output.SigningKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to sign attestation: %w", err)
	}

	return out, nil
}
