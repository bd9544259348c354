package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"

	"github.com/chaosinthecrd/tag/internal/tag/activity"
)

const DefaultLogPath = "./logs.tag.yaml"

// Sink persists activity logs and related outputs.
type Sink struct {
	log logr.Logger
	fs  afero.Fs
}

func New(log logr.Logger, fs afero.Fs) *Sink {
	return &Sink{
		log: log.WithName("sink"),
		fs:  fs,
	}
}

// Staged is an output written to a temporary file next to its destination.
// Nothing exists at the destination until Commit.
type Staged struct {
	log       logr.Logger
	fs        afero.Fs
	path      string
	tmp       string
	committed bool

	// Data is the content of the output.
	Data []byte
}

// Encode renders records as a YAML sequence.
func Encode(records []activity.Record) ([]byte, error) {
	if records == nil {
		records = []activity.Record{}
	}
	return yaml.Marshal(records)
}

// StageLog encodes records and stages them for path.
func (s *Sink) StageLog(path string, records []activity.Record) (*Staged, error) {
	data, err := Encode(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity log: %w", err)
	}

	return s.Stage(path, data)
}

// Stage writes data to a temporary file in the directory of path.
func (s *Sink) Stage(path string, data []byte) (*Staged, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := s.fs.Chmod(tmp.Name(), 0o644); err != nil && !os.IsNotExist(err) {
		s.log.V(1).Info("failed to set file mode", "path", path, "error", err.Error())
	}

	return &Staged{
		log:  s.log,
		fs:   s.fs,
		path: path,
		tmp:  tmp.Name(),
		Data: data,
	}, nil
}

// Path is the destination of the output.
func (f *Staged) Path() string {
	return f.path
}

// Commit moves the staged file into place.
func (f *Staged) Commit() error {
	if f.committed {
		return nil
	}

	if err := f.fs.Rename(f.tmp, f.path); err != nil {
		f.fs.Remove(f.tmp)
		return fmt.Errorf("failed to move %s into place: %w", f.path, err)
	}
	f.committed = true

	f.log.Info("wrote output", "path", f.path, "bytes", len(f.Data))
	return nil
}

// Discard removes the output, whether or not it was committed.
func (f *Staged) Discard() error {
	name := f.tmp
	if f.committed {
		name = f.path
	}

	if err := f.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	f.committed = false

	return nil
}
