package playbook

import (
	"gopkg.in/yaml.v2"
)

// Kind is the activity_type of a playbook entry.
type Kind string

const (
	KindFile    Kind = "file"
	KindProcess Kind = "fork"
	KindNetwork Kind = "network"

	// kindProcessAlias is accepted on input for KindProcess.
	kindProcessAlias Kind = "process"
)

// Spec describes one activity to generate.
type Spec interface {
	Kind() Kind
}

// File creates a file in Directory with the given Extension, optionally
// modifies it, then deletes it.
type File struct {
	Modify    bool
	Directory string
	Extension string
}

func (File) Kind() Kind { return KindFile }

func (f File) MarshalYAML() (interface{}, error) {
	return yaml.MapSlice{
		{Key: "activity_type", Value: string(KindFile)},
		{Key: "modify", Value: f.Modify},
		{Key: "path", Value: f.Directory},
		{Key: "extension", Value: f.Extension},
	}, nil
}

// Process forks the current process and optionally executes a program in the
// child.
type Process struct {
	Exec bool
}

func (Process) Kind() Kind { return KindProcess }

func (p Process) MarshalYAML() (interface{}, error) {
	return yaml.MapSlice{
		{Key: "activity_type", Value: string(KindProcess)},
		{Key: "exec", Value: p.Exec},
	}, nil
}

// Network opens a TCP connection and writes a probe.
type Network struct{}

func (Network) Kind() Kind { return KindNetwork }

func (Network) MarshalYAML() (interface{}, error) {
	return yaml.MapSlice{
		{Key: "activity_type", Value: string(KindNetwork)},
	}, nil
}
