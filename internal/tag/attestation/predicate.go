package attestation

import (
	"time"

	"github.com/chaosinthecrd/tag/internal/tag/activity"
	"github.com/chaosinthecrd/tag/internal/tag/playbook"
)

// Predicate describes a single run: what was requested and what was
// generated.
type Predicate struct {
	RunID      string            `json:"runId"`
	Host       string            `json:"host"`
	Started    time.Time         `json:"started"`
	Finished   time.Time         `json:"finished"`
	Activities []Activity        `json:"activities"`
	Records    []activity.Record `json:"records"`
}

// Activity is the requested activity as recorded in the predicate.
type Activity struct {
	Type      string `json:"activityType"`
	Modify    *bool  `json:"modify,omitempty"`
	Path      string `json:"path,omitempty"`
	Extension string `json:"extension,omitempty"`
	Exec      *bool  `json:"exec,omitempty"`
}

// Activities converts playbook specs for the predicate.
func Activities(specs []playbook.Spec) []Activity {
	out := make([]Activity, 0, len(specs))
	for _, s := range specs {
		a := Activity{Type: string(s.Kind())}
		switch s := s.(type) {
		case playbook.File:
			modify := s.Modify
			a.Modify = &modify
			a.Path = s.Directory
			a.Extension = s.Extension
		case playbook.Process:
			exec := s.Exec
			a.Exec = &exec
		}
		out = append(out, a)
	}
	return out
}
