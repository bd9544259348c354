package playbook

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// ErrEmpty is returned for playbooks without any activity.
var ErrEmpty = errors.New("playbook has no activities")

// entry is the authoring format of a single playbook activity. Pointers
// distinguish absent fields from zero values.
type entry struct {
	ActivityType Kind    `yaml:"activity_type"`
	Modify       *bool   `yaml:"modify"`
	Path         *string `yaml:"path"`
	Extension    *string `yaml:"extension"`
	Exec         *bool   `yaml:"exec"`
}

// Load reads and parses the playbook at path.
func Load(fs afero.Fs, path string) ([]Spec, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playbook: %w", err)
	}

	specs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playbook %s: %w", path, err)
	}

	return specs, nil
}

// Parse decodes a YAML playbook into activity specs, preserving order.
func Parse(data []byte) ([]Spec, error) {
	var entries []entry
	if err := yaml.UnmarshalStrict(data, &entries); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, ErrEmpty
	}

	specs := make([]Spec, 0, len(entries))
	for i, e := range entries {
		s, err := e.spec()
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", i+1, err)
		}
		specs = append(specs, s)
	}

	return specs, nil
}

// Marshal encodes specs as a playbook with every field explicit.
func Marshal(specs []Spec) ([]byte, error) {
	return yaml.Marshal(specs)
}

func (e entry) spec() (Spec, error) {
	switch e.ActivityType {
	case KindFile:
		if e.Exec != nil {
			return nil, unexpected(e.ActivityType, "exec")
		}
		if e.Path == nil || *e.Path == "" {
			return nil, missing(e.ActivityType, "path")
		}
		if e.Extension == nil {
			return nil, missing(e.ActivityType, "extension")
		}
		return File{
			Modify:    e.Modify != nil && *e.Modify,
			Directory: *e.Path,
			Extension: *e.Extension,
		}, nil

	case KindProcess, kindProcessAlias:
		if err := e.only(e.ActivityType, "exec"); err != nil {
			return nil, err
		}
		return Process{Exec: e.Exec != nil && *e.Exec}, nil

	case KindNetwork:
		if err := e.only(e.ActivityType); err != nil {
			return nil, err
		}
		return Network{}, nil

	case "":
		return nil, errors.New("activity_type is required")

	default:
		return nil, fmt.Errorf("unknown activity_type %q", e.ActivityType)
	}
}

// only returns an error if a field outside allowed is set.
func (e entry) only(kind Kind, allowed ...string) error {
	set := map[string]bool{
		"modify":    e.Modify != nil,
		"path":      e.Path != nil,
		"extension": e.Extension != nil,
		"exec":      e.Exec != nil,
	}
	for _, a := range allowed {
		delete(set, a)
	}

	for _, field := range []string{"modify", "path", "extension", "exec"} {
		if set[field] {
			return unexpected(kind, field)
		}
	}
	return nil
}

func missing(kind Kind, field string) error {
	return fmt.Errorf("%s activity requires %q", kind, field)
}

func unexpected(kind Kind, field string) error {
	return fmt.Errorf("%q is not a field of %s activities", field, kind)
}
