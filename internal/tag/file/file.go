package file

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chaosinthecrd/tag/internal/tag/activity"
	"github.com/chaosinthecrd/tag/internal/tag/identity"
)

var (
	ErrCreate   = errors.New("failed to create file")
	ErrWrite    = errors.New("failed to modify file")
	ErrIdentity = errors.New("no identity to attribute file activity to")
)

// marker is written to the file when modification is requested.
var marker = []byte("tag\n")

// now is replaced in tests.
var now = time.Now

// Generate creates a uniquely named file in directory, optionally modifies
// it, and deletes it again. The returned records always start with a
// FileCreated and end with a FileDeleted for the same path.
func Generate(id *identity.Context, directory, extension string, modify bool) ([]activity.Record, error) {
	if id == nil {
		return nil, ErrIdentity
	}

	f, err := os.CreateTemp(directory, "tag-*"+extension)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreate, err)
	}
	path := f.Name()

	records := []activity.Record{
		activity.New(id, now(), activity.FileCreated{Path: path}),
	}

	if modify {
		if err := write(f); err != nil {
			release(f)
			return nil, fmt.Errorf("%w %s: %w", ErrWrite, path, err)
		}
		records = append(records, activity.New(id, now(), activity.FileModified{Path: path}))
	}

	// Deletion is inferred from the release, the result of the unlink is not
	// verified.
	release(f)
	records = append(records, activity.New(id, now(), activity.FileDeleted{Path: path}))

	return records, nil
}

func write(f *os.File) error {
	if _, err := f.Write(marker); err != nil {
		return err
	}
	return f.Sync()
}

func release(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}
