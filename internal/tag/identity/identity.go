package identity

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	// ErrLookupFailed is returned when the path of the running executable
	// cannot be determined.
	ErrLookupFailed = errors.New("failed to look up current executable")

	// ErrNonUTF8Name is returned when the executable name is not valid UTF-8.
	ErrNonUTF8Name = errors.New("executable name is not valid UTF-8")
)

// Context is the identity of the process generating activity. It is resolved
// once per run and shared read-only by every generator.
type Context struct {
	Username    string
	PID         int
	CommandLine string
	ProcessName string
}

// Resolve builds the identity Context of the current process.
func Resolve() (*Context, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	name, err := processName(exe)
	if err != nil {
		return nil, err
	}

	return &Context{
		Username:    username(),
		PID:         os.Getpid(),
		CommandLine: strings.Join(os.Args, " "),
		ProcessName: name,
	}, nil
}

func processName(exe string) (string, error) {
	name := filepath.Base(exe)
	switch name {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("%w: %q has no file name", ErrLookupFailed, exe)
	}

	if !utf8.ValidString(name) {
		return "", ErrNonUTF8Name
	}

	return name, nil
}

func username() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}

	for _, env := range []string{"USER", "LOGNAME"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}

	return strconv.Itoa(os.Getuid())
}
